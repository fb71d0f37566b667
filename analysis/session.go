package analysis

import (
	"github.com/aarsakian/CryptoTriage/model"
	"github.com/google/uuid"
)

// Session holds the volumes enumerated from one opened source. It lives from
// StartSession until the manager is closed or a new session replaces it.
type Session struct {
	ID      string
	Source  model.Source
	Volumes []*model.Volume
}

func NewSession(source model.Source, volumes []*model.Volume) *Session {
	return &Session{ID: uuid.NewString(), Source: source, Volumes: volumes}
}

// AddVolume appends a volume unless one with the same identifier is present.
func (session *Session) AddVolume(volume *model.Volume) {
	for _, existing := range session.Volumes {
		if existing.Identifier == volume.Identifier {
			return
		}
	}
	session.Volumes = append(session.Volumes, volume)
}

func (session *Session) VolumeIDs() []string {
	ids := make([]string, 0, len(session.Volumes))
	for _, volume := range session.Volumes {
		ids = append(ids, volume.Identifier)
	}
	return ids
}
