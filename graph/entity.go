package graph

// Interaction type constants. Relational tables may carry any other
// free-form value in their interaction_type column.
const (
	InteractionMention = "mention"
	InteractionReply   = "reply"
	InteractionRetweet = "retweet"
	InteractionQuote   = "quote"
)

// Actor is a participant in the interaction graph. Identity is the name
// alone: two Actors with the same name are the same node.
type Actor struct {
	Name string `json:"name"`
}

// NewActor returns the Actor identified by name.
func NewActor(name string) Actor { return Actor{Name: name} }

func (a Actor) String() string { return a.Name }

// Interaction is a single observed relationship between two actors.
// It is directed in origin (A acted towards B) but undirected in the graph.
type Interaction struct {
	A    Actor  `json:"a"`
	B    Actor  `json:"b"`
	Type string `json:"type,omitempty"`
	Item string `json:"item,omitempty"` // originating content item, if any
}

// SelfLoop reports whether both ends of the interaction are the same actor.
func (i Interaction) SelfLoop() bool { return i.A == i.B }

// Edge is the collapsed form of every interaction between one pair of
// actors. Type and Item hold the values of the most recent interaction.
type Edge struct {
	A     Actor  `json:"a"`
	B     Actor  `json:"b"`
	Type  string `json:"type,omitempty"`
	Item  string `json:"item,omitempty"`
	Count int    `json:"count"`
}
