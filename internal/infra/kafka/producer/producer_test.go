package producer

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aliskhannn/image-uploader/internal/model"
)

func TestEncode(t *testing.T) {
	id := uuid.MustParse("0b6a6a8e-8f5e-4a43-9d43-5a3e1c2f9b10")
	task := model.Task{Key: "images/catalog/raw/42/" + id.String(), ImageID: id}

	key, value, err := Encode(task)
	require.NoError(t, err)

	assert.Equal(t, id.String(), string(key))
	assert.JSONEq(t, `{"key":"images/catalog/raw/42/`+id.String()+`","image_id":"`+id.String()+`"}`, string(value))
}
