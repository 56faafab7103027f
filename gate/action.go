package gate

// Action is the operation a subject attempts on a resource.
type Action string

const (
	ActionView         Action = "view"
	ActionCreate       Action = "create"
	ActionUpdate       Action = "update"
	ActionDelete       Action = "delete"
	ActionList         Action = "list"
	ActionChangeStatus Action = "change_status"
	ActionExport       Action = "export"
)

// Resource types guarded by the CRM gate.
const (
	ResourceQuote  = "quote"
	ResourceClient = "client"
	ResourceCard   = "card"
)
