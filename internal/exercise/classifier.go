package exercise

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

type MuscleGroup string

const (
	MuscleGroupArms      MuscleGroup = "arms"
	MuscleGroupBack      MuscleGroup = "back"
	MuscleGroupChest     MuscleGroup = "chest"
	MuscleGroupLegs      MuscleGroup = "legs"
	MuscleGroupShoulders MuscleGroup = "shoulders"
	MuscleGroupCore      MuscleGroup = "core"
	MuscleGroupCardio    MuscleGroup = "cardio"
	MuscleGroupGlutes    MuscleGroup = "glutes"
	MuscleGroupOther     MuscleGroup = "other"
)

func (g MuscleGroup) IsValid() bool {
	for _, known := range MuscleGroups() {
		if g == known {
			return true
		}
	}
	return false
}

// MuscleGroups returns all canonical groups, in classification priority order,
// with the fallback group last.
func MuscleGroups() []MuscleGroup {
	return []MuscleGroup{
		MuscleGroupArms,
		MuscleGroupBack,
		MuscleGroupChest,
		MuscleGroupLegs,
		MuscleGroupShoulders,
		MuscleGroupCore,
		MuscleGroupCardio,
		MuscleGroupGlutes,
		MuscleGroupOther,
	}
}

type groupRule struct {
	group   MuscleGroup
	pattern *regexp.Regexp
}

// Rules are evaluated top to bottom and the first match wins. Groups overlap
// ("fondos para triceps" is arms, not chest; any "remo" or "row" is back, so
// "remo al menton" never reaches shoulders), so the order is part of the
// classification contract and must not change.
var groupRules = []groupRule{
	{
		group: MuscleGroupArms,
		pattern: regexp.MustCompile(
			`bicep|tricep|skull ?crusher|press frances|(hammer|concentration|preacher|spider|zottman) curl|` +
				`curl (de |con |en )?(barra|mancuernas?|martillo|concentrado|predicador|polea)|` +
				`extensiones? (de |para )?triceps|patada de triceps|antebrazo|forearm|brazos?\b|\barms?\b`,
		),
	},
	{
		group: MuscleGroupBack,
		pattern: regexp.MustCompile(
			`\brows?\b|rowing\b|remo|pull-? ?ups?|chin-? ?ups?|dominadas?|pulldown|jalon|` +
				`deadlift|peso muerto|espalda|dorsal|\blats?\b|hiperextension|back extension|pullover`,
		),
	},
	{
		group: MuscleGroupChest,
		pattern: regexp.MustCompile(
			`bench|press (de )?banca|press (inclinado|declinado)|chest|pecho|pectoral|` +
				`aperturas?|\bfly\b|\bflyes?\b|cruces? (de|en) polea|crossover|pec deck|` +
				`\bdips?\b|fondos|push-? ?ups?|flexiones|lagartijas`,
		),
	},
	{
		group: MuscleGroupLegs,
		pattern: regexp.MustCompile(
			`squat|sentadilla|lunges?|zancadas?|estocadas?|leg press|prensa|` +
				`leg extensions?|extensiones? de (pierna|cuadriceps)|hamstring|femoral|isquio|` +
				`calf|calves|gemelos?|pantorrillas?|piernas?\b|\blegs?\b|cuadriceps|\bquads?\b|step-? ?ups?`,
		),
	},
	{
		group: MuscleGroupShoulders,
		pattern: regexp.MustCompile(
			`overhead press|shoulder|military press|press militar|arnold|` +
				`(lateral|front|rear delt) raises?|elevaciones? (laterales|frontales|lateral|frontal)|` +
				`pajaros?|hombros?|deltoides?|face ?pulls?|encogimientos|shrugs?`,
		),
	},
	{
		group: MuscleGroupCore,
		pattern: regexp.MustCompile(
			`crunch|abdominal|\babs\b|plank|plancha|russian twist|giros? rusos?|\bcore\b|` +
				`oblicuos?|sit-? ?ups?|mountain climbers?|escaladores|rueda abdominal|ab wheel|hollow`,
		),
	},
	{
		group: MuscleGroupCardio,
		pattern: regexp.MustCompile(
			`\brun|running|correr|carrera|trote|\bjog|cycling|\bbike|bicicleta|spinning|cardio|` +
				`eliptica|elliptical|swim|natacion|nadar|hiit|burpees?|jump(ing)? rope|comba|` +
				`saltar|jumping jacks|\bwalk|caminar|caminata|treadmill|cinta|stair|escaladora|boxeo|boxing`,
		),
	},
	{
		group: MuscleGroupGlutes,
		pattern: regexp.MustCompile(
			`glute|gluteos?|hip thrust|puente|bridge|kickbacks?|patada|abduct|hip abduction`,
		),
	},
}

// Classify maps a free-text exercise name to a canonical muscle group.
// Matching is case and diacritic insensitive. Unknown names, including the
// empty string, yield MuscleGroupOther.
func Classify(exerciseName string) MuscleGroup {
	normalized := normalize(exerciseName)
	if normalized == "" {
		return MuscleGroupOther
	}

	for _, rule := range groupRules {
		if rule.pattern.MatchString(normalized) {
			return rule.group
		}
	}

	return MuscleGroupOther
}

func normalize(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(strings.TrimSpace(out))
}
