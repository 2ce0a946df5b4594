package cli

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"strings"

	"github.com/rileyhilliard/portalctl/internal/errors"
	"gopkg.in/yaml.v3"
)

// machineMode is --json: JSON output, no spinners, no prompts.
var machineMode bool

// JSONEnvelope is the top-level object of every --json response, success
// or failure, so scripts can branch on "success" alone.
type JSONEnvelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *JSONError  `json:"error,omitempty"`
}

// JSONError is the "error" member of a failed envelope.
type JSONError struct {
	Code       string      `json:"code"`
	Message    string      `json:"message"`
	Suggestion string      `json:"suggestion,omitempty"`
	Details    interface{} `json:"details,omitempty"`
}

// Stable error codes for scripts. They are coarser than the internal
// codes only where CONFIG splits into missing and invalid.
const (
	ErrCodeConfigNotFound   = "CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid    = "CONFIG_INVALID"
	ErrCodeAuthRequired     = "AUTH_REQUIRED"
	ErrCodeNotFound         = "RESOURCE_NOT_FOUND"
	ErrCodeFetchFailed      = "FETCH_FAILED"
	ErrCodeSSHFailed        = "SSH_FAILED"
	ErrCodeKubeconfigFailed = "KUBECONFIG_FAILED"
	ErrCodeUnknown          = "UNKNOWN"
)

// Output formats.
const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

// resolveFormat picks the output format: --json, then --format, then the
// configured default.
func resolveFormat(configured string) (string, error) {
	if machineMode {
		return formatJSON, nil
	}
	f := strings.ToLower(strings.TrimSpace(formatFlag))
	if f == "" {
		f = strings.ToLower(configured)
	}
	switch f {
	case "", formatTable:
		return formatTable, nil
	case formatJSON, formatYAML:
		return f, nil
	}
	return "", errors.New(errors.ErrConfig,
		"Unknown output format '"+f+"'",
		"Use table, json or yaml")
}

// render writes data in format. table is only called for table output.
func render(w io.Writer, format string, data interface{}, table func() string) error {
	switch format {
	case formatJSON:
		return WriteJSONSuccess(w, data)
	case formatYAML:
		return writeYAML(w, data)
	default:
		_, err := io.WriteString(w, table())
		return err
	}
}

// writeYAML encodes data through its JSON form so YAML keys match the
// portal's field names.
func writeYAML(w io.Writer, data interface{}) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	var generic interface{}
	if err := json.Unmarshal(raw, &generic); err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(generic); err != nil {
		return err
	}
	return enc.Close()
}

// WriteJSONSuccess wraps data in a success envelope.
func WriteJSONSuccess(w io.Writer, data interface{}) error {
	return encodeEnvelope(w, JSONEnvelope{Success: true, Data: data})
}

// WriteJSONFromError writes the failure envelope for err.
func WriteJSONFromError(w io.Writer, err error) error {
	return encodeEnvelope(w, JSONEnvelope{Error: ErrorToJSON(err)})
}

func encodeEnvelope(w io.Writer, env JSONEnvelope) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(env)
}

// ErrorToJSON describes err for scripts. Errors that aren't structured
// come out as UNKNOWN with their text as the message. Portal HTTP
// failures carry the status in details.
func ErrorToJSON(err error) *JSONError {
	if err == nil {
		return nil
	}
	var e *errors.Error
	if !stderrors.As(err, &e) {
		return &JSONError{Code: ErrCodeUnknown, Message: err.Error()}
	}
	out := &JSONError{Code: machineCode(e), Message: e.Short(), Suggestion: e.Suggestion}
	if e.Status != 0 {
		out.Details = map[string]interface{}{"status": e.Status}
	}
	return out
}

var machineCodes = map[string]string{
	errors.ErrAuth:       ErrCodeAuthRequired,
	errors.ErrNotFound:   ErrCodeNotFound,
	errors.ErrFetch:      ErrCodeFetchFailed,
	errors.ErrSSH:        ErrCodeSSHFailed,
	errors.ErrKubeconfig: ErrCodeKubeconfigFailed,
}

func machineCode(e *errors.Error) string {
	if e.Code == errors.ErrConfig {
		msg := strings.ToLower(e.Message)
		if strings.Contains(msg, "not found") || strings.Contains(msg, "isn't set") {
			return ErrCodeConfigNotFound
		}
		return ErrCodeConfigInvalid
	}
	if code, ok := machineCodes[e.Code]; ok {
		return code
	}
	return ErrCodeUnknown
}
