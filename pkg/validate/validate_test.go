package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type sample struct {
	CommunityID string   `json:"communityID" validate:"required"`
	AdminList   []string `json:"adminList" validate:"required,min=1,dive,required"`
	Ignored     string   `json:"-"`
}

func TestStruct(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, Struct(&sample{CommunityID: "c1", AdminList: []string{"u1"}}))
	})

	t.Run("missing fields use json names", func(t *testing.T) {
		err := Struct(&sample{})
		assert.ErrorIs(t, err, ErrInvalid)
		assert.Contains(t, Message(err), "adminList is a required field")
		assert.Contains(t, Message(err), "communityID is a required field")
		assert.NotContains(t, Message(err), ErrInvalid.Error())
	})

	t.Run("empty list element", func(t *testing.T) {
		err := Struct(&sample{CommunityID: "c1", AdminList: []string{""}})
		assert.ErrorIs(t, err, ErrInvalid)
	})
}
