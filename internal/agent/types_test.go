package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConversationClone(t *testing.T) {
	c := NewConversation("s1", "u1")
	c.Append(RoleUser, "hi")
	c.State["last_flow"] = "sales_analysis"

	cp := c.Clone()
	require.NotNil(t, cp)
	cp.Append(RoleAssistant, "hello")
	cp.State["last_flow"] = "inventory_check"

	assert.Equal(t, 1, c.HistoryLen())
	assert.Equal(t, 2, cp.HistoryLen())
	assert.Equal(t, "sales_analysis", c.State["last_flow"])
	assert.Equal(t, "s1", cp.SessionID)
	assert.Equal(t, "u1", cp.UserID)
}

func TestConversationNil(t *testing.T) {
	var c *Conversation
	assert.Nil(t, c.Clone())
	assert.Zero(t, c.HistoryLen())
}

func TestConversationAppend(t *testing.T) {
	c := NewConversation("s1", "u1")
	before := c.UpdatedAt

	c.Append(RoleUser, "show my sales")
	require.Len(t, c.History, 1)
	assert.Equal(t, RoleUser, c.History[0].Role)
	assert.Equal(t, "show my sales", c.History[0].Content)
	assert.False(t, c.History[0].Timestamp.IsZero())
	assert.False(t, c.UpdatedAt.Before(before))
}

func TestIntentHasEntity(t *testing.T) {
	intent := Intent{
		Name:     "sales_analysis",
		Entities: []Entity{{Name: "product_id", Value: "SKU-1001"}},
	}
	assert.True(t, intent.HasEntity("product_id"))
	assert.False(t, intent.HasEntity("time_period"))
	assert.False(t, Intent{}.HasEntity("product_id"))
}
