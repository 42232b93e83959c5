package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPaths(t *testing.T) {
	assert.Equal(t, "Community/c1/Post/p1/Comment/m1", CommentPath("c1", "p1", "m1"))
	assert.Equal(t, "Community/c1/Post/p1/Comment/m1/Votes", VotesPath(CommentPath("c1", "p1", "m1")))
	assert.Equal(t, "Community/c1/Subscription/subscription", SubscriptionPath("c1"))
	assert.Equal(t, "User/u1/Notification", NotificationsPath("u1"))
	assert.Equal(t, "Community/c1/MemberApproval", MemberApprovalsPath("c1"))
}

func TestCreatorToMap(t *testing.T) {
	c := Creator{CreatorID: "u1", Name: "Ann", Department: "CS", ProfilePicture: "p.png"}
	assert.Equal(t, map[string]any{
		"creatorID":      "u1",
		"name":           "Ann",
		"department":     "CS",
		"profilePicture": "p.png",
	}, c.ToMap())
}
