package providers

import "context"

// ClinicLocker serializes queue mutations per clinic. Lock blocks until the
// clinic is free or ctx is done; the returned function releases the lock.
type ClinicLocker interface {
	Lock(ctx context.Context, clinicID string) (unlock func(), err error)
}
