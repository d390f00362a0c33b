package jsonx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}

func TestDecode(t *testing.T) {
	t.Run("strict json", func(t *testing.T) {
		var p payload
		require.NoError(t, Decode(`{"name":"fix","score":76}`, &p))
		assert.Equal(t, payload{Name: "fix", Score: 76}, p)
	})

	t.Run("fenced json", func(t *testing.T) {
		var p payload
		raw := "```json\n{\"name\":\"fix\",\"score\":76}\n```"
		require.NoError(t, Decode(raw, &p))
		assert.Equal(t, payload{Name: "fix", Score: 76}, p)
	})

	t.Run("repairs trailing comma", func(t *testing.T) {
		var p payload
		require.NoError(t, Decode(`{"name":"fix","score":76,}`, &p))
		assert.Equal(t, payload{Name: "fix", Score: 76}, p)
	})

	t.Run("repairs single quotes", func(t *testing.T) {
		var p payload
		require.NoError(t, Decode(`{'name':'fix','score':76}`, &p))
		assert.Equal(t, payload{Name: "fix", Score: 76}, p)
	})

	t.Run("unrepairable input fails", func(t *testing.T) {
		var p payload
		assert.Error(t, Decode("the agent apologizes and returns prose", &p))
	})
}

func TestStripFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "no fence", in: `{"a":1}`, want: `{"a":1}`},
		{name: "fence with language", in: "```json\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "fence without language", in: "```\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "surrounding whitespace", in: "  {\"a\":1}\n", want: `{"a":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripFences(tt.in))
		})
	}
}
