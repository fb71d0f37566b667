package analysis

import (
	"testing"

	"github.com/aarsakian/CryptoTriage/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSession(t *testing.T) {
	volumes := []*model.Volume{{Identifier: "img:1"}, {Identifier: "img:2"}}
	session := NewSession(testSource(), volumes)

	_, err := uuid.Parse(session.ID)
	require.NoError(t, err, "session ids are uuids")
	assert.Equal(t, []string{"img:1", "img:2"}, session.VolumeIDs())

	other := NewSession(testSource(), nil)
	assert.NotEqual(t, session.ID, other.ID)
}

func TestSessionAddVolume(t *testing.T) {
	session := NewSession(testSource(), []*model.Volume{{Identifier: "img:1"}})

	session.AddVolume(&model.Volume{Identifier: "img:2"})
	session.AddVolume(&model.Volume{Identifier: "img:1"})
	assert.Equal(t, []string{"img:1", "img:2"}, session.VolumeIDs())
}
