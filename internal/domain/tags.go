package domain

// Vocabulario canonico de notas de cata.
var CanonicalTags = []string{
	"Fruity", "Floral", "Citrus", "Berry", "Stone Fruit", "Tropical",
	"Chocolatey", "Nutty", "Caramel", "Spicy", "Herbal", "Earthy",
}

// Tags de proceso, usados por el catalogo de productos.
var ProcessTags = []string{
	"Funky/Fermenty", "Boozy", "Winey", "Jammy", "Clean", "Tea-like", "Juicy", "Syrupy",
}

// Vocabulario fijo de feedback de ajuste.
var FitIssueTags = []string{
	"Too bright", "Not sweet enough", "Too bitter", "Too heavy",
	"Too light", "Too funky", "Perfectly balanced",
}

// StandoutTagOptions arma las opciones de "Standout Notes": las notas del
// producto primero, completadas con tags canonicos no repetidos, con un tope
// de 8 opciones distintas en total.
func StandoutTagOptions(tastingNotes []string) []string {
	const maxOptions = 8

	options := make([]string, 0, maxOptions)
	seen := make(map[string]bool)
	for _, note := range tastingNotes {
		if note == "" || seen[note] {
			continue
		}
		options = append(options, note)
		seen[note] = true
		if len(options) == maxOptions {
			return options
		}
	}
	for _, tag := range CanonicalTags {
		if seen[tag] {
			continue
		}
		options = append(options, tag)
		seen[tag] = true
		if len(options) == maxOptions {
			break
		}
	}
	return options
}
