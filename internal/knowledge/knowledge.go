// Package knowledge holds the static per-subject answer table used as the
// terminal rung of the fallback chain. The table is immutable after process
// start, so concurrent lookups need no locking.
package knowledge

import (
	"slices"
	"strings"
)

// GeneralSubject is the catch-all entry every Base is guaranteed to hold.
const GeneralSubject = "general"

// Base is an immutable subject-keyed table of canned explanatory text.
// Lookups never fail: unknown subjects resolve to the general entry.
type Base struct {
	entries map[string]string
}

// New returns the built-in knowledge base.
func New() *Base {
	return &Base{entries: builtin}
}

// Lookup returns the canned text for a subject. Matching is case-insensitive
// and ignores surrounding and repeated whitespace.
func (b *Base) Lookup(subject string) string {
	if text, ok := b.entries[Normalize(subject)]; ok {
		return text
	}
	return b.entries[GeneralSubject]
}

// Has reports whether a subject has its own entry (rather than falling
// through to the general one).
func (b *Base) Has(subject string) bool {
	_, ok := b.entries[Normalize(subject)]
	return ok
}

// Subjects returns the known subject names in sorted order.
func (b *Base) Subjects() []string {
	subjects := make([]string, 0, len(b.entries))
	for s := range b.entries {
		subjects = append(subjects, s)
	}
	slices.Sort(subjects)
	return subjects
}

// Normalize maps a subject tag to its lookup key: lowercased, trimmed,
// inner whitespace collapsed.
func Normalize(subject string) string {
	return strings.ToLower(strings.Join(strings.Fields(subject), " "))
}

var builtin = map[string]string{
	"biology": "Living organisms are built from cells, the basic units of life. " +
		"Plants capture light energy through photosynthesis, converting carbon dioxide and water into glucose and oxygen in their chloroplasts, " +
		"while cells reproduce through mitosis, a division process that produces two genetically identical daughter cells. " +
		"Hereditary information is stored in DNA, a double-helix molecule whose base sequence encodes the proteins an organism builds. " +
		"Organisms interact with each other and their physical environment in ecosystems, where energy flows from producers through consumers to decomposers.",

	"chemistry": "Matter is composed of atoms, which combine into molecules through ionic, covalent, and metallic bonds. " +
		"The periodic table organizes the elements by atomic number into groups and periods that share recurring chemical properties. " +
		"Chemical reactions rearrange atoms while conserving mass: reactants form products at rates governed by concentration, temperature, and catalysts, " +
		"and many reactions in solution are described by acid-base or oxidation-reduction behavior.",

	"physics": "Physics describes matter, energy, and their interactions through a small set of fundamental laws. " +
		"Gravity causes objects with mass to attract each other; near Earth's surface it accelerates falling objects at about 9.8 m/s² regardless of their mass." +
		"Newton's laws relate force, mass, and acceleration, and energy is conserved as it changes between kinetic, potential, and thermal forms. " +
		"Waves transport energy without transporting matter, which underlies sound, light, and much of modern technology.",

	"mathematics": "Mathematics studies quantity, structure, and space through rigorous reasoning. " +
		"Algebra manipulates symbols to solve equations, while geometry studies shapes and their relationships: " +
		"the Pythagorean theorem, a² + b² = c² for the sides of a right triangle, links the two fields. " +
		"A good mathematical answer states the definitions it relies on, shows each step of the working, and checks the result against the original problem.",

	"computer science": "Computer science studies algorithms: precise, finite procedures for solving problems, and the systems that execute them. " +
		"Programs are built from data structures and control flow, and their cost is measured in time and memory as input size grows. " +
		"Software engineering applies systematic design, testing, and maintenance practices to build reliable programs, " +
		"while machine learning trains models such as neural networks, layered networks of weighted nodes, to recognize patterns in data instead of following hand-written rules.",

	"history": "History examines how societies change over time by interpreting primary and secondary sources. " +
		"The twentieth century was shaped by two world wars: the First (1914-1918) ended four empires and redrew the map of Europe, " +
		"and the Second (1939-1945) caused unprecedented destruction and led to the United Nations and the Cold War order. " +
		"A strong historical answer places events in chronological context, identifies causes and consequences, and supports claims with evidence.",

	"geography": "Geography studies the Earth's surface and the relationship between people and their environment. " +
		"The water cycle moves water continuously between oceans, atmosphere, and land through evaporation, condensation, precipitation, and collection, driven by solar energy and gravity. " +
		"Physical processes such as plate tectonics, erosion, and deposition shape landforms, while human geography examines how population, settlement, and economic activity are distributed across them.",

	"literature": "Literature is the art of written works: poetry, drama, and prose, studied for both craft and meaning. " +
		"William Shakespeare (1564-1616), the preeminent English playwright, wrote tragedies, comedies, and histories whose themes of ambition, love, and power remain central to the canon. " +
		"A strong literary answer identifies the devices a writer uses, such as imagery, irony, and characterization, and explains the effect of those choices with quotations from the text.",

	"civics": "Civics studies citizenship and government. " +
		"Democracy is a system in which power rests with the people, exercised directly or through freely elected representatives, " +
		"and rests on popular sovereignty, the rule of law, protection of individual rights, and accountable institutions. " +
		"Representative democracies elect legislators to decide on citizens' behalf, while constitutional constraints limit what any majority may do.",

	"environmental science": "Environmental science examines how natural systems work and how human activity changes them. " +
		"Ecosystems link living organisms with their physical surroundings; energy enters through photosynthesis and roughly ten percent passes between trophic levels. " +
		"Burning fossil fuels raises atmospheric greenhouse gas concentrations, driving climate change: global warming, shifting precipitation, and rising seas, " +
		"which conservation, renewable energy, and efficiency measures aim to limit.",

	GeneralSubject: "A strong answer begins by defining the key terms in the question, explains the central idea in your own words, " +
		"and supports the explanation with at least one concrete example or piece of evidence. " +
		"Organize the response so each paragraph makes a single point, connect those points back to what the question asks, " +
		"and close with a brief summary of the main argument.",
}
