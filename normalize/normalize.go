// Package normalize turns heterogeneous interaction tables into canonical
// actors and interactions.
//
// Two table shapes are recognised by column inspection:
//
//   - content: an author column "name" and a free-text column "text" or
//     "content"; every @handle in the text is an interaction between the
//     author and the handle.
//   - relational: explicit "who", "to_whom" and "interaction_type" columns
//     with optional "who_username", "to_whom_username" and "item".
package normalize

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/brunobiangulo/sociograph/errs"
	"github.com/brunobiangulo/sociograph/graph"
	"github.com/brunobiangulo/sociograph/parser"
)

// Column names, matched exactly.
const (
	ColName    = "name"
	ColText    = "text"
	ColContent = "content"

	ColWho             = "who"
	ColToWhom          = "to_whom"
	ColInteractionType = "interaction_type"
	ColWhoUsername     = "who_username"
	ColToWhomUsername  = "to_whom_username"
	ColItem            = "item"
)

// relationalColumns are required for the relational shape, in the order
// they are reported when missing.
var relationalColumns = []string{ColWho, ColToWhom, ColInteractionType}

// mentionPattern matches an @ followed by one or more word characters.
var mentionPattern = regexp.MustCompile(`@(\w+)`)

// Shape identifies which column layout a table uses.
type Shape int

const (
	ShapeContent Shape = iota + 1
	ShapeRelational
)

func (s Shape) String() string {
	switch s {
	case ShapeContent:
		return "content"
	case ShapeRelational:
		return "relational"
	default:
		return "unknown"
	}
}

// Records is the canonical output of normalisation. Actors are
// deduplicated and listed in first-seen order.
type Records struct {
	Shape        Shape
	Actors       []graph.Actor
	Interactions []graph.Interaction
}

// DetectShape inspects the columns of t. The content shape wins when its
// columns are present; otherwise the relational columns are required and
// a SchemaError names the ones that are missing.
func DetectShape(t *parser.Table) (Shape, error) {
	if t.Has(ColName) && (t.Has(ColText) || t.Has(ColContent)) {
		return ShapeContent, nil
	}
	if missing := t.Missing(relationalColumns...); len(missing) > 0 {
		return 0, &errs.SchemaError{Shape: ShapeRelational.String(), Missing: missing}
	}
	return ShapeRelational, nil
}

// Normalize validates the shape of t and converts every row. Schema
// validation happens before any row is read.
func Normalize(t *parser.Table) (*Records, error) {
	shape, err := DetectShape(t)
	if err != nil {
		return nil, err
	}

	var rec *Records
	switch shape {
	case ShapeContent:
		rec = fromContent(t)
	default:
		rec = fromRelational(t)
	}

	slog.Debug("normalize: table converted",
		"shape", shape.String(), "rows", t.Len(),
		"actors", len(rec.Actors), "interactions", len(rec.Interactions))
	return rec, nil
}

// actorSet deduplicates actors while keeping first-seen order.
type actorSet struct {
	seen  map[graph.Actor]bool
	order []graph.Actor
}

func newActorSet() *actorSet {
	return &actorSet{seen: make(map[graph.Actor]bool)}
}

func (s *actorSet) add(a graph.Actor) {
	if s.seen[a] {
		return
	}
	s.seen[a] = true
	s.order = append(s.order, a)
}

func fromContent(t *parser.Table) *Records {
	textCol := ColText
	if !t.Has(ColText) {
		textCol = ColContent
	}

	actors := newActorSet()
	var interactions []graph.Interaction
	for i := range t.Rows {
		author := strings.TrimSpace(t.Cell(i, ColName))
		text := t.Cell(i, textCol)
		if author == "" {
			continue
		}
		from := graph.NewActor(author)
		actors.add(from)
		if strings.TrimSpace(text) == "" {
			continue
		}

		for _, handle := range Mentions(text) {
			to := graph.NewActor(handle)
			actors.add(to)
			interactions = append(interactions, graph.Interaction{
				A:    from,
				B:    to,
				Type: graph.InteractionMention,
				Item: text,
			})
		}
	}
	return &Records{Shape: ShapeContent, Actors: actors.order, Interactions: interactions}
}

func fromRelational(t *parser.Table) *Records {
	actors := newActorSet()
	var interactions []graph.Interaction
	skipped := 0
	for i := range t.Rows {
		who := displayName(t.Cell(i, ColWhoUsername), t.Cell(i, ColWho))
		toWhom := displayName(t.Cell(i, ColToWhomUsername), t.Cell(i, ColToWhom))
		if who == "" || toWhom == "" {
			skipped++
			continue
		}

		from, to := graph.NewActor(who), graph.NewActor(toWhom)
		actors.add(from)
		actors.add(to)
		interactions = append(interactions, graph.Interaction{
			A:    from,
			B:    to,
			Type: strings.TrimSpace(t.Cell(i, ColInteractionType)),
			Item: strings.TrimSpace(t.Cell(i, ColItem)),
		})
	}
	if skipped > 0 {
		slog.Debug("normalize: skipped rows with blank ids", "count", skipped)
	}
	return &Records{Shape: ShapeRelational, Actors: actors.order, Interactions: interactions}
}

// displayName prefers the username override and falls back to the raw id.
func displayName(username, id string) string {
	if u := strings.TrimSpace(username); u != "" {
		return u
	}
	return strings.TrimSpace(id)
}

// Mentions returns every @handle in text, without the @, in order of
// appearance. Repeated handles are returned each time they occur.
func Mentions(text string) []string {
	matches := mentionPattern.FindAllStringSubmatch(text, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m[1])
	}
	return out
}

// MentionsBy returns the distinct actors a initiated interactions with,
// in first-seen order.
func MentionsBy(interactions []graph.Interaction, a graph.Actor) []graph.Actor {
	set := newActorSet()
	for _, in := range interactions {
		if in.A == a {
			set.add(in.B)
		}
	}
	return set.order
}
