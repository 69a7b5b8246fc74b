package application

import "context"

// AudioSource delivers one utterance per call, either raw audio or a text
// command prefixed with domain.TextCommandPrefix.
type AudioSource interface {
	Start(ctx context.Context) error
	Stop() error
	NextCommand(ctx context.Context) ([]byte, error)
	Name() string
}
