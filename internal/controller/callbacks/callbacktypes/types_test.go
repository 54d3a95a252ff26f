package callbacktypes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDataRoundTrip(t *testing.T) {
	action, id, err := Parse(Data(BookSchedule, 15))
	require.NoError(t, err)
	assert.Equal(t, BookSchedule, action)
	assert.Equal(t, int64(15), id)
}

func TestParseRejectsMalformed(t *testing.T) {
	for _, data := range []string{"", "conn_accept", "conn_accept:", "conn_accept:abc", ":5", "conn_accept:-1", "a:b:c"} {
		_, _, err := Parse(data)
		assert.Error(t, err, data)
	}
}
