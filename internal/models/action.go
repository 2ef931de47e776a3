package models

// Action is the treatment decided for a single file of the installation tree
type Action int

const (
	// ActionExclude drops the file from the target tree.
	ActionExclude Action = iota
	// ActionCompile compiles the source file to bytecode in the target tree.
	ActionCompile
	// ActionCopy copies the file bytes verbatim.
	ActionCopy
)

// String returns the lowercase name of the action.
func (a Action) String() string {
	switch a {
	case ActionExclude:
		return "exclude"
	case ActionCompile:
		return "compile"
	case ActionCopy:
		return "copy"
	default:
		return "unknown"
	}
}
