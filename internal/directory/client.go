package directory

import "context"

// Client contains the directory service calls needed by the store.
type Client interface {
	ListDoctors(ctx context.Context) ([]Doctor, error)
	CreateDoctor(ctx context.Context, in DoctorInput) (Doctor, error)
	UpdateDoctor(ctx context.Context, doc Doctor) (Doctor, error)
	DeleteDoctor(ctx context.Context, id string) error
}
