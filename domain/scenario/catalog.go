package scenario

import (
	"fmt"
	"strconv"

	"moralsim/domain/core"
	"moralsim/domain/pattern"
)

// Template is an immutable scenario blueprint. Render and Options are pure
// functions of the drawn params.
type Template struct {
	ID         TemplateID        `json:"id"`
	Title      string            `json:"title"`
	Probes     []Probe           `json:"probes"`
	Params     []ParamSpec       `json:"params"`
	Challenges pattern.Dimension `json:"challenges,omitempty"`

	Render  func(p Params) string           `json:"-"`
	Options func(p Params) (Option, Option) `json:"-"`
}

// Phrasing variants for templates whose action wording can vary
var (
	leverActions = []string{"Pull the lever", "Divert the trolley", "Intervene", "Take action", "Switch the tracks"}
	stayActions  = []string{"Do nothing", "Let events unfold", "Stay out of it", "Don't intervene", "Leave the lever alone"}
)

func variant(pool []string, p Params) string {
	i := p.Count("phrasing")
	if i < 0 || i >= len(pool) {
		i = 0
	}
	return pool[i]
}

func itoa(n int) string { return strconv.Itoa(n) }

var phrasing = ParamSpec{Name: "phrasing", Kind: KindVariant, Min: 0, Max: 4}

var youngerAges = []string{"children (8-12)", "teenagers (13-17)"}
var olderAges = []string{"middle-aged adults (40-55)", "elderly people (65+)"}
var knownPeople = []string{"your coworker", "your friend", "a member of your family"}

// certain fills the expected-death fields for an outcome with no uncertainty
func certain(deaths, altDeaths int) OptionMetadata {
	return OptionMetadata{
		Deaths:                    deaths,
		ExpectedDeaths:            float64(deaths),
		AlternativeExpectedDeaths: float64(altDeaths),
		Utilitarian:               deaths < altDeaths,
	}
}

var catalog = []Template{
	{
		ID:     TemplateClassic,
		Title:  "The Classic Dilemma",
		Probes: []Probe{ProbeQuantity, ProbeAge, ProbeRelationship, ProbeAction},
		Params: []ParamSpec{
			{Name: "main_count", Kind: KindCount, Min: 3, Max: 6},
			{Name: "side_count", Kind: KindCount, Min: 1, Max: 2},
			{Name: "main_age", Kind: KindLabel, Choices: AgeBrackets},
			{Name: "side_age", Kind: KindLabel, Choices: AgeBrackets},
			{Name: "side_relation", Kind: KindLabel, Choices: GroupRelations},
			phrasing,
		},
		Render: func(p Params) string {
			return fmt.Sprintf("A runaway trolley is heading toward %d %s on the main track. "+
				"You can pull a lever to divert it to a side track where %d %s are standing; they are %s.",
				p.Count("main_count"), p.Label("main_age"),
				p.Count("side_count"), p.Label("side_age"), p.Label("side_relation"))
		},
		Options: func(p Params) (Option, Option) {
			main, side := p.Count("main_count"), p.Count("side_count")
			a := certain(side, main)
			a.Saved = main
			a.SparesYounger = Younger(p.Label("main_age"), p.Label("side_age"))

			b := certain(main, side)
			b.Saved = side
			b.Inaction = true
			b.SparesYounger = Younger(p.Label("side_age"), p.Label("main_age"))
			b.SparesKnown = IsKnown(p.Label("side_relation"))

			return Option{
					Label:       LabelA,
					Action:      variant(leverActions, p),
					Consequence: itoa(side) + " people on the side track die, but " + itoa(main) + " are saved",
					Metadata:    a,
				}, Option{
					Label:       LabelB,
					Action:      variant(stayActions, p),
					Consequence: itoa(main) + " people die, but you didn't actively cause anyone's death",
					Metadata:    b,
				}
		},
	},
	{
		ID:         TemplateBridge,
		Title:      "The Bridge Dilemma",
		Probes:     []Probe{ProbePersonalHarm, ProbeRelationship, ProbeQuantity},
		Challenges: pattern.PrefersKnown,
		Params: []ParamSpec{
			{Name: "victim_count", Kind: KindCount, Min: 3, Max: 6, ChallengeMin: 5, ChallengeMax: 6},
			{Name: "bystander_age", Kind: KindLabel, Choices: AgeBrackets},
			{Name: "bystander_relation", Kind: KindLabel, Choices: PersonRelations, ChallengeChoices: knownPeople},
		},
		Render: func(p Params) string {
			return fmt.Sprintf("You're on a bridge above the trolley tracks. A runaway trolley is heading toward %d people. "+
				"The only way to stop it is to push %s standing next to you off the bridge. They are %s. "+
				"The fall would stop the trolley but kill them.",
				p.Count("victim_count"), SingularAge(p.Label("bystander_age")), p.Label("bystander_relation"))
		},
		Options: func(p Params) (Option, Option) {
			victims := p.Count("victim_count")
			a := certain(1, victims)
			a.Saved = victims
			a.PersonalHarm = true

			b := certain(victims, 1)
			b.Saved = 1
			b.Inaction = true
			b.SparesKnown = IsKnown(p.Label("bystander_relation"))

			return Option{
					Label:       LabelA,
					Action:      "Push them off the bridge",
					Consequence: "1 person dies, but " + itoa(victims) + " are saved",
					Metadata:    a,
				}, Option{
					Label:       LabelB,
					Action:      "Don't push",
					Consequence: itoa(victims) + " people die, and the person next to you lives",
					Metadata:    b,
				}
		},
	},
	{
		ID:         TemplateLoop,
		Title:      "The Loop Track",
		Probes:     []Probe{ProbeAge, ProbeCertainty, ProbeQuantity},
		Challenges: pattern.PrefersYounger,
		Params: []ParamSpec{
			{Name: "main_count", Kind: KindCount, Min: 4, Max: 7},
			{Name: "main_age", Kind: KindLabel, Choices: AgeBrackets, ChallengeChoices: olderAges},
			{Name: "loop_count", Kind: KindCount, Min: 1, Max: 2},
			{Name: "loop_age", Kind: KindLabel, Choices: AgeBrackets, ChallengeChoices: youngerAges},
			{Name: "certainty", Kind: KindPercent, Min: 60, Max: 89},
			phrasing,
		},
		Render: func(p Params) string {
			return fmt.Sprintf("A trolley is heading toward %d %s. You can divert it onto a loop track where it will hit %d %s, "+
				"but there's only a %d%% chance the loop will work properly. If it fails, the trolley stays on its course.",
				p.Count("main_count"), p.Label("main_age"),
				p.Count("loop_count"), p.Label("loop_age"), p.Count("certainty"))
		},
		Options: func(p Params) (Option, Option) {
			main, loop := p.Count("main_count"), p.Count("loop_count")
			q := float64(p.Count("certainty")) / 100

			a := OptionMetadata{
				Deaths:                    loop,
				Saved:                     main,
				ExpectedDeaths:            q*float64(loop) + (1-q)*float64(main),
				AlternativeExpectedDeaths: float64(main),
				Uncertain:                 true,
				SparesYounger:             Younger(p.Label("main_age"), p.Label("loop_age")),
			}
			a.Utilitarian = a.ExpectedDeaths < a.AlternativeExpectedDeaths

			b := certain(main, 0)
			b.AlternativeExpectedDeaths = a.ExpectedDeaths
			b.Utilitarian = b.ExpectedDeaths < b.AlternativeExpectedDeaths
			b.Saved = loop
			b.Inaction = true
			b.SparesYounger = Younger(p.Label("loop_age"), p.Label("main_age"))

			return Option{
					Label:  LabelA,
					Action: variant(leverActions, p),
					Consequence: fmt.Sprintf("If the loop holds (%d%% likely), %d die and %d are saved; otherwise the %d still die",
						p.Count("certainty"), loop, main, main),
					Metadata: a,
				}, Option{
					Label:       LabelB,
					Action:      variant(stayActions, p),
					Consequence: itoa(main) + " people die, and the " + itoa(loop) + " on the loop track are untouched",
					Metadata:    b,
				}
		},
	},
	{
		ID:     TemplateLargePerson,
		Title:  "The Large Person",
		Probes: []Probe{ProbePersonalHarm, ProbeQuantity},
		Params: []ParamSpec{
			{Name: "victim_count", Kind: KindCount, Min: 3, Max: 6},
		},
		Render: func(p Params) string {
			return fmt.Sprintf("%d people are on the tracks in the path of a runaway trolley. "+
				"A large person is standing next to you. Pushing them in front of the trolley would stop it, "+
				"killing them but saving the others.", p.Count("victim_count"))
		},
		Options: func(p Params) (Option, Option) {
			victims := p.Count("victim_count")
			a := certain(1, victims)
			a.Saved = victims
			a.PersonalHarm = true

			b := certain(victims, 1)
			b.Saved = 1
			b.Inaction = true

			return Option{
					Label:       LabelA,
					Action:      "Push the large person",
					Consequence: "1 person dies, but " + itoa(victims) + " are saved",
					Metadata:    a,
				}, Option{
					Label:       LabelB,
					Action:      "Do nothing",
					Consequence: itoa(victims) + " people die, but you didn't actively cause anyone's death",
					Metadata:    b,
				}
		},
	},
	{
		ID:         TemplateTransplant,
		Title:      "The Transplant Surgeon",
		Probes:     []Probe{ProbeProfessionalEthics, ProbePersonalHarm, ProbeQuantity},
		Challenges: pattern.PrefersMore,
		Params: []ParamSpec{
			{Name: "patient_count", Kind: KindCount, Min: 3, Max: 5},
			{Name: "donor_age", Kind: KindLabel, Choices: []string{"young adults (25-35)"}},
		},
		Render: func(p Params) string {
			return fmt.Sprintf("You're a doctor with %d patients who will die without organ transplants. "+
				"%s comes in for a routine checkup, perfectly healthy. Their organs could save all %d patients.",
				p.Count("patient_count"), capitalize(SingularAge(p.Label("donor_age"))), p.Count("patient_count"))
		},
		Options: func(p Params) (Option, Option) {
			patients := p.Count("patient_count")
			a := certain(1, patients)
			a.Saved = patients
			a.PersonalHarm = true
			a.ProfessionalViolation = true

			b := certain(patients, 1)
			b.Saved = 1
			b.Inaction = true

			return Option{
					Label:       LabelA,
					Action:      "Harvest the organs",
					Consequence: "1 healthy person dies, but " + itoa(patients) + " patients are saved",
					Metadata:    a,
				}, Option{
					Label:       LabelB,
					Action:      "Finish the checkup",
					Consequence: itoa(patients) + " patients die, but you keep your oath",
					Metadata:    b,
				}
		},
	},
	{
		ID:     TemplateSpecies,
		Title:  "Humans and Animals",
		Probes: []Probe{ProbeSpecies, ProbeQuantity},
		Params: []ParamSpec{
			{Name: "human_count", Kind: KindCount, Min: 1, Max: 2},
			{Name: "human_age", Kind: KindLabel, Choices: AgeBrackets},
			{Name: "animal_count", Kind: KindCount, Min: 10, Max: 19},
			{Name: "animal_type", Kind: KindLabel, Choices: AnimalTypes},
			phrasing,
		},
		Render: func(p Params) string {
			return fmt.Sprintf("A trolley is heading toward %d %s. You can divert it to a track with %d %s. "+
				"Whichever track it takes, everyone on it dies.",
				p.Count("human_count"), p.Label("human_age"), p.Count("animal_count"), p.Label("animal_type"))
		},
		Options: func(p Params) (Option, Option) {
			humans, animals := p.Count("human_count"), p.Count("animal_count")
			a := certain(0, humans)
			a.Saved = humans
			a.AnimalDeaths = animals
			a.SparesHumans = true

			b := certain(humans, 0)
			b.Inaction = true

			return Option{
					Label:       LabelA,
					Action:      variant(leverActions, p),
					Consequence: itoa(animals) + " " + p.Label("animal_type") + " die, but " + itoa(humans) + " people are saved",
					Metadata:    a,
				}, Option{
					Label:       LabelB,
					Action:      variant(stayActions, p),
					Consequence: itoa(humans) + " people die, and the " + itoa(animals) + " " + p.Label("animal_type") + " live",
					Metadata:    b,
				}
		},
	},
	{
		ID:         TemplateProbability,
		Title:      "The Emergency Switch",
		Probes:     []Probe{ProbeCertainty, ProbeAction, ProbeQuantity},
		Challenges: pattern.AvoidsAction,
		Params: []ParamSpec{
			{Name: "certain_death_count", Kind: KindCount, Min: 3, Max: 5},
			{Name: "success_rate", Kind: KindPercent, Min: 50, Max: 89, ChallengeMin: 80, ChallengeMax: 89},
			{Name: "sacrifice_count", Kind: KindCount, Min: 1, Max: 2, ChallengeMin: 1, ChallengeMax: 1},
			{Name: "sacrifice_age", Kind: KindLabel, Choices: AgeBrackets},
		},
		Render: func(p Params) string {
			return fmt.Sprintf("A runaway trolley will kill %d people if nothing is done. "+
				"You can trigger an emergency switch that has a %d%% chance of saving all of them, "+
				"but it will definitely kill %d %s standing beside it.",
				p.Count("certain_death_count"), p.Count("success_rate"),
				p.Count("sacrifice_count"), p.Label("sacrifice_age"))
		},
		Options: func(p Params) (Option, Option) {
			doomed, sacrifice := p.Count("certain_death_count"), p.Count("sacrifice_count")
			q := float64(p.Count("success_rate")) / 100

			a := OptionMetadata{
				Deaths:                    sacrifice,
				Saved:                     doomed,
				ExpectedDeaths:            float64(sacrifice) + (1-q)*float64(doomed),
				AlternativeExpectedDeaths: float64(doomed),
				Uncertain:                 true,
			}
			a.Utilitarian = a.ExpectedDeaths < a.AlternativeExpectedDeaths

			b := certain(doomed, 0)
			b.AlternativeExpectedDeaths = a.ExpectedDeaths
			b.Utilitarian = b.ExpectedDeaths < b.AlternativeExpectedDeaths
			b.Saved = sacrifice
			b.Inaction = true

			return Option{
					Label:  LabelA,
					Action: "Trigger the switch",
					Consequence: fmt.Sprintf("%d die for certain; with %d%% probability all %d are saved",
						sacrifice, p.Count("success_rate"), doomed),
					Metadata: a,
				}, Option{
					Label:       LabelB,
					Action:      "Leave the switch alone",
					Consequence: itoa(doomed) + " people die, but you didn't actively cause anyone's death",
					Metadata:    b,
				}
		},
	},
}

var byID = func() map[TemplateID]*Template {
	m := make(map[TemplateID]*Template, len(catalog))
	for i := range catalog {
		m[catalog[i].ID] = &catalog[i]
	}
	return m
}()

// Catalog returns the templates in fixed catalog order
func Catalog() []Template {
	out := make([]Template, len(catalog))
	copy(out, catalog)
	return out
}

// IDs returns template ids in catalog order
func IDs() []TemplateID {
	ids := make([]TemplateID, len(catalog))
	for i, t := range catalog {
		ids[i] = t.ID
	}
	return ids
}

// Lookup finds a template by id
func Lookup(id TemplateID) (*Template, error) {
	t, ok := byID[id]
	if !ok {
		return nil, core.NewTemplateNotFoundError(string(id))
	}
	return t, nil
}

// Spec returns the named parameter spec, if the template declares one
func (t *Template) Spec(name string) (ParamSpec, bool) {
	for _, p := range t.Params {
		if p.Name == name {
			return p, true
		}
	}
	return ParamSpec{}, false
}

// Build renders a template with the given params into an unsaved scenario
func (t *Template) Build(p Params) *Scenario {
	a, b := t.Options(p)
	return &Scenario{
		ID:         core.NewScenarioID(),
		TemplateID: t.ID,
		Title:      t.Title,
		Context:    t.Render(p),
		OptionA:    a,
		OptionB:    b,
		Params:     p,
		Probes:     t.Probes,
		Source:     SourceCatalog,
		CreatedAt:  core.Now(),
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	if s[0] >= 'a' && s[0] <= 'z' {
		return string(s[0]-'a'+'A') + s[1:]
	}
	return s
}
