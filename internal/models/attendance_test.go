package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRollNumbersNormalize(t *testing.T) {
	assert.Equal(t, RollNumbers{3, 7, 12}, RollNumbers{12, 3, 7, 3}.Normalize())
	assert.Equal(t, RollNumbers{}, RollNumbers(nil).Normalize())
}

func TestRollNumbersValueScan(t *testing.T) {
	v, err := RollNumbers{3, 7}.Value()
	require.NoError(t, err)
	assert.Equal(t, "{3,7}", v)

	v, err = RollNumbers(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, "{}", v)

	var r RollNumbers
	require.NoError(t, r.Scan([]byte("{4,9}")))
	assert.Equal(t, RollNumbers{4, 9}, r)

	require.NoError(t, r.Scan(nil))
	assert.Equal(t, RollNumbers{}, r)
}

func TestAttendanceCloneIsIndependent(t *testing.T) {
	a := Attendance{ID: "a", AbsentRollNumbers: RollNumbers{1, 2}}
	b := a.Clone()
	b.AbsentRollNumbers[0] = 99
	assert.Equal(t, int64(1), a.AbsentRollNumbers[0])
}
