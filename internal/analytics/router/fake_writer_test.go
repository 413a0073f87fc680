package router

import (
	"context"

	"github.com/voltline/voltline-backend/internal/analytics/types"
)

type fakeWriter struct {
	inserted []types.StorefrontEventRow
	err      error
}

func (f *fakeWriter) Insert(_ context.Context, row types.StorefrontEventRow) error {
	if f.err != nil {
		return f.err
	}
	f.inserted = append(f.inserted, row)
	return nil
}
