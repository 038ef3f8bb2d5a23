package nlp

// Curated Spanish lexicons for the support-ticket corpus.

// urgencyTerms flag time-critical language. Matched against lemmatized
// tokens.
var urgencyTerms = map[string]struct{}{
	"urgente":    {},
	"inmediato":  {},
	"critico":    {},
	"crítico":    {},
	"emergencia": {},
	"grave":      {},
	"bloqueado":  {},
	"bloqueante": {},
	"produccion": {},
	"producción": {},
	"caido":      {},
	"caído":      {},
	"error":      {},
	"falla":      {},
	"problema":   {},
	"roto":       {},
	"perdida":    {},
	"pérdida":    {},
	"importante": {},
	"prioridad":  {},
	"rapido":     {},
	"rápido":     {},
	"asap":       {},
	"ya":         {},
}

// positiveTerms and negativeTerms drive the lexicon-intersection sentiment
// score. Matched against the cleaned-text word set.
var positiveTerms = map[string]struct{}{
	"bien":       {},
	"bueno":      {},
	"mejor":      {},
	"excelente":  {},
	"perfecto":   {},
	"funciona":   {},
	"satisfecho": {},
	"contento":   {},
	"feliz":      {},
	"gracias":    {},
	"genial":     {},
	"rápido":     {},
	"rapido":     {},
	"eficiente":  {},
	"correcto":   {},
}

var negativeTerms = map[string]struct{}{
	"mal":           {},
	"malo":          {},
	"peor":          {},
	"problema":      {},
	"error":         {},
	"falla":         {},
	"decepcionado":  {},
	"molesto":       {},
	"frustrado":     {},
	"terrible":      {},
	"horrible":      {},
	"defectuoso":    {},
	"roto":          {},
	"dañado":        {},
	"incorrecto":    {},
	"insatisfecho":  {},
}

// stopwords is a compact Spanish stopword list applied by the full backend.
var stopwords = map[string]struct{}{
	"de": {}, "la": {}, "que": {}, "el": {}, "en": {}, "los": {},
	"del": {}, "las": {}, "por": {}, "un": {}, "para": {}, "con": {},
	"una": {}, "su": {}, "al": {}, "lo": {}, "como": {}, "más": {},
	"mas": {}, "pero": {}, "sus": {}, "le": {}, "este": {}, "porque": {},
	"esta": {}, "entre": {}, "cuando": {}, "muy": {}, "sin": {},
	"sobre": {}, "también": {}, "hasta": {}, "hay": {}, "donde": {},
	"quien": {}, "desde": {}, "todo": {}, "nos": {}, "durante": {},
	"todos": {}, "uno": {}, "les": {}, "contra": {}, "otros": {},
	"ese": {}, "eso": {}, "ante": {}, "ellos": {}, "esto": {},
	"antes": {}, "algunos": {}, "qué": {}, "unos": {}, "otro": {},
	"otras": {}, "otra": {}, "tanto": {}, "esa": {}, "estos": {},
	"mucho": {}, "nada": {}, "muchos": {}, "cual": {}, "poco": {},
	"ella": {}, "estar": {}, "estas": {}, "algunas": {}, "algo": {},
	"nosotros": {}, "fue": {}, "ser": {}, "son": {}, "tiene": {},
	"tengo": {}, "había": {}, "sido": {}, "está": {}, "están": {},
	"puede": {}, "pueden": {},
}

// IsStopword reports whether the word is in the stopword list.
func IsStopword(word string) bool {
	_, ok := stopwords[word]
	return ok
}
