package utils_test

import (
	"testing"

	"github.com/blutspende/labops/utils"
	"github.com/stretchr/testify/assert"
)

func TestSliceContains(t *testing.T) {
	panels := []string{"OMIM-AUTO", "IEM", "EP", "PEDHEP"}

	assert.True(t, utils.SliceContains("IEM", panels))
	assert.False(t, utils.SliceContains("CILM", panels))
}

func TestAppendUniqueKeepsFirstSeenOrder(t *testing.T) {
	values := make([]string, 0)
	for _, value := range []string{"fam2", "fam1", "fam2", "fam3", "fam1"} {
		values = utils.AppendUnique(values, value)
	}
	assert.Equal(t, []string{"fam2", "fam1", "fam3"}, values)
}

type stage string

func TestJoinEnumsAsString(t *testing.T) {
	assert.Equal(t, "received, prepared, delivered", utils.JoinEnumsAsString([]stage{"received", "prepared", "delivered"}, ", "))
	assert.Equal(t, "", utils.JoinEnumsAsString([]stage{}, ", "))
}
