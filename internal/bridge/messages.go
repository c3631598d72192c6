package bridge

// Outbound message types the UI recognizes.
const (
	TypeMainInput      = "main_input"
	TypePendingRequest = "pending_request"
	TypeInfo           = "info"
	TypeSummary        = "summary"
	TypeDiff           = "diff"
	TypeResult         = "result"
	TypeError          = "error"
	TypeSupervisorLog  = "supervisor_log"
	TypeSystem         = "system"
)

// Inbound message types and the internal actions they normalize to.
const (
	InboundChat            = "chat"
	InboundUserInput       = "user_input"
	InboundInput           = "input"
	InboundPrompt          = "prompt"
	InboundPendingResponse = "pending_response"
	InboundReset           = "reset"
)
