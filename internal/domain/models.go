package domain

// Mode indica si el consumidor declara preferencias generales o reacciona a
// un cafe que esta probando ahora.
type Mode string

const (
	ModePreferenceOnly Mode = "preference_only"
	ModeTasted         Mode = "tasted"
)

// Valid reporta si el modo es uno de los dos soportados.
func (m Mode) Valid() bool {
	return m == ModePreferenceOnly || m == ModeTasted
}

// Attribute es uno de los seis atributos sensoriales fijos.
type Attribute string

const (
	AttrAroma      Attribute = "aroma"
	AttrFlavor     Attribute = "flavor"
	AttrAftertaste Attribute = "aftertaste"
	AttrAcidity    Attribute = "acidity"
	AttrSweetness  Attribute = "sweetness"
	AttrMouthfeel  Attribute = "mouthfeel"
)

// Attributes lista los seis atributos en el orden canonico del formulario.
var Attributes = []Attribute{
	AttrAroma, AttrFlavor, AttrAftertaste, AttrAcidity, AttrSweetness, AttrMouthfeel,
}

// RatingMin y RatingMax delimitan la escala de todas las calificaciones.
const (
	RatingMin = 1
	RatingMax = 9
)

// ValidRating reporta si v cae dentro de la escala 1..9.
func ValidRating(v int) bool {
	return v >= RatingMin && v <= RatingMax
}

// NotesMaxLen es el tope de caracteres de la nota libre; se trunca al
// aceptar el input, no al enviar.
const NotesMaxLen = 280

// Limites de seleccion de tags.
const (
	MaxStandoutTags = 5
	MaxFitTags      = 3
)

// PreferenceProfile es el registro por sesion de niveles sensoriales
// preferidos mas los dos flags de consentimiento. Se sobreescribe completo
// en cada envio.
type PreferenceProfile struct {
	SessionID        string `json:"session_id"`
	ConsumerID       string `json:"consumer_id,omitempty"`
	AromaPref        int    `json:"aroma_pref_1to9"`
	FlavorPref       int    `json:"flavor_pref_1to9"`
	AftertastePref   int    `json:"aftertaste_pref_1to9"`
	AcidityPref      int    `json:"acidity_pref_1to9"`
	SweetnessPref    int    `json:"sweetness_pref_1to9"`
	MouthfeelPref    int    `json:"mouthfeel_pref_1to9"`
	ConsentAnalytics bool   `json:"consent_analytics"`
	ConsentMarketing bool   `json:"consent_marketing"`
}

// Pref devuelve el valor preferido del atributo dado.
func (p PreferenceProfile) Pref(attr Attribute) int {
	switch attr {
	case AttrAroma:
		return p.AromaPref
	case AttrFlavor:
		return p.FlavorPref
	case AttrAftertaste:
		return p.AftertastePref
	case AttrAcidity:
		return p.AcidityPref
	case AttrSweetness:
		return p.SweetnessPref
	case AttrMouthfeel:
		return p.MouthfeelPref
	}
	return 0
}

// TastingResponse es un envio del formulario atado a un producto/variante.
// Los campos opcionales viajan como null cuando estan vacios, nunca como
// colecciones vacias.
type TastingResponse struct {
	SessionID          string   `json:"session_id"`
	ConsumerID         *string  `json:"consumer_id,omitempty"`
	ProductID          string   `json:"product_id"`
	VariantID          string   `json:"variant_id"`
	Mode               Mode     `json:"mode"`
	Aroma              *int     `json:"aroma_1to9"`
	Flavor             *int     `json:"flavor_1to9"`
	Aftertaste         *int     `json:"aftertaste_1to9"`
	Acidity            *int     `json:"acidity_1to9"`
	Sweetness          *int     `json:"sweetness_1to9"`
	Mouthfeel          *int     `json:"mouthfeel_1to9"`
	OverallLiking      *int     `json:"overall_liking_1to9"`
	Notes              *string  `json:"notes"`
	StandoutTags       []string `json:"standout_tags"`
	StandoutTagsSource *string  `json:"standout_tags_source"`
	FitTags            []string `json:"fit_tags"`
	ConsentAnalytics   bool     `json:"consent_analytics"`
	ConsentMarketing   bool     `json:"consent_marketing"`
}

// AttributeScore es una fila del desglose del fit score.
type AttributeScore struct {
	Match   int `json:"match"`
	Delta   int `json:"delta"`
	Pref    int `json:"pref"`
	Product int `json:"product"`
}

// FitScore es el resultado derivado 0-100; el cliente nunca lo cachea.
type FitScore struct {
	ProfileExists bool                         `json:"profile_exists"`
	Score         int                          `json:"score"`
	RawScore      int                          `json:"raw_score,omitempty"`
	Label         string                       `json:"label"`
	Breakdown     map[Attribute]AttributeScore `json:"breakdown"`
}

// Event es un evento de telemetria fire-and-forget.
type Event struct {
	EventName string         `json:"event_name"`
	SessionID string         `json:"session_id"`
	ProductID string         `json:"product_id,omitempty"`
	VariantID string         `json:"variant_id,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}
