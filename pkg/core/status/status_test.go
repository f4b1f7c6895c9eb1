package status

import (
	"fmt"
	"testing"

	"github.com/oneconcern/gxyarchiver/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestErrorFamilies(t *testing.T) {
	for _, toPin := range []struct {
		err    *errors.Error
		family error
		others []error
	}{
		{err: ErrMaxBundleSize, family: ErrConfig, others: []error{ErrIO, ErrIntegrity}},
		{err: ErrSizeMismatch, family: ErrIntegrity, others: []error{ErrIO, ErrConfig, ErrChecksumMismatch}},
		{err: ErrChecksumMismatch, family: ErrIntegrity, others: []error{ErrIO, ErrConfig, ErrSizeMismatch}},
		{err: ErrUnitVanished, family: ErrIO, others: []error{ErrConfig, ErrIntegrity, ErrUnitExists}},
		{err: ErrUnitExists, family: ErrIO, others: []error{ErrConfig, ErrIntegrity, ErrUnitVanished}},
	} {
		testCase := toPin
		t.Run(testCase.err.Error(), func(t *testing.T) {
			wrapped := fmt.Errorf("unit A: %w", testCase.err.Wrap(fmt.Errorf("details")))
			assert.True(t, errors.Is(wrapped, testCase.err))
			assert.True(t, errors.Is(wrapped, testCase.family))
			for _, other := range testCase.others {
				assert.False(t, errors.Is(wrapped, other), "unexpected match with %v", other)
			}
		})
	}
}
