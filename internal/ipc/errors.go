package ipc

import (
	"errors"
	"net/rpc"
	"strings"

	"autosort/internal/services"
)

// RemoteError is a daemon-side failure received by the client.
type RemoteError struct {
	Kind    string
	Message string
}

func (e *RemoteError) Error() string { return e.Message }

// Is matches the services sentinel with the same kind.
func (e *RemoteError) Is(target error) bool {
	return e.Kind != "" && e.Kind != "internal" && services.Kind(target) == e.Kind
}

// encodeError tags err with its kind so the client can classify it.
func encodeError(err error) error {
	if err == nil {
		return nil
	}
	return errors.New("[" + services.Kind(err) + "] " + err.Error())
}

func decodeError(err error) error {
	var serverErr rpc.ServerError
	if !errors.As(err, &serverErr) {
		return err
	}
	text := string(serverErr)
	if strings.HasPrefix(text, "[") {
		if end := strings.Index(text, "] "); end > 0 {
			return &RemoteError{Kind: text[1:end], Message: text[end+2:]}
		}
	}
	return &RemoteError{Kind: "internal", Message: text}
}
