package transport

// Paths of the syscall endpoints.
const (
	PathDmesg       = "/sys/dmesg"
	PathDmesgToggle = "/sys/dmesg_log_toggle"
)

// Error codes returned in ErrorResponse.
const (
	CodeInvalidArgument = "invalid_argument"
	CodeFault           = "fault"
	CodeBadRequest      = "bad_request"
)

// DmesgRequest asks for a copy of the buffer into a user buffer of Size bytes.
type DmesgRequest struct {
	Size int `json:"size"`
}

// DmesgResponse carries the copied user buffer, terminator included.
type DmesgResponse struct {
	Data []byte `json:"data"`
}

// ToggleRequest toggles a single event class.
type ToggleRequest struct {
	Class    int `json:"class"`
	Duration int `json:"duration"`
}

// ErrorResponse is returned with every non-2xx status.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
