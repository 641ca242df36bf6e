package workflow

// SelectorKind says which slice of the instance a workflow operates on.
type SelectorKind int

const (
	SelectAll SelectorKind = iota
	SelectGroup
	SelectUser
)

// Selector narrows a listing or export to all users, the members of one
// group, or a single username.
type Selector struct {
	Kind SelectorKind
	Name string
}

func All() Selector { return Selector{Kind: SelectAll} }

func ByGroup(name string) Selector { return Selector{Kind: SelectGroup, Name: name} }

func ByUsername(name string) Selector { return Selector{Kind: SelectUser, Name: name} }
