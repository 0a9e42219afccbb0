package directory

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/arztportal/patient-portal/internal/apperrors"
)

// Store is the session-local cache of the doctor directory. Every mutation
// is confirmed by the server before the cache changes; a rejected delete in
// particular must leave the record visible, since the rejection is server
// truth (e.g. the doctor still has scheduled call tasks).
type Store struct {
	client Client
	log    *zap.Logger

	mu          sync.Mutex
	cache       []Doctor
	listSeq     uint64
	lastApplied uint64
}

func NewStore(client Client, log *zap.Logger) *Store {
	return &Store{client: client, log: log}
}

// List pulls the directory from the server, replaces the cache on success
// and returns a copy in server order. On failure the cache is untouched.
// Pulls are sequence-stamped: a response belonging to a pull older than the
// last applied one is discarded and the newer cache returned instead, so
// two rapid lists resolving out of order cannot leave stale doctors behind.
func (s *Store) List(ctx context.Context) ([]Doctor, error) {
	s.mu.Lock()
	s.listSeq++
	seq := s.listSeq
	s.mu.Unlock()

	doctors, err := s.client.ListDoctors(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if seq <= s.lastApplied {
		return append([]Doctor(nil), s.cache...), nil
	}
	s.lastApplied = seq
	s.cache = append(s.cache[:0:0], doctors...)

	return append([]Doctor(nil), s.cache...), nil
}

// Cached returns the current cache without a network round trip.
func (s *Store) Cached() []Doctor {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Doctor(nil), s.cache...)
}

// Add validates the input, issues the create call and appends the
// server-returned record (with its assigned identifier) to the cache.
func (s *Store) Add(ctx context.Context, in DoctorInput) (Doctor, error) {
	if verr := validateFields(in.Name, in.Phone, in.OpeningHours, in.Profession); verr != nil {
		return Doctor{}, verr
	}

	created, err := s.client.CreateDoctor(ctx, in)
	if err != nil {
		return Doctor{}, err
	}

	s.mu.Lock()
	s.cache = append(s.cache, created)
	s.mu.Unlock()

	s.log.Info("doctor added", zap.String("doctor_id", created.ID))
	return created, nil
}

// Update requires an assigned identifier and replaces the matching cached
// record only after the server confirms. No partial apply on failure.
func (s *Store) Update(ctx context.Context, doc Doctor) (Doctor, error) {
	if strings.TrimSpace(doc.ID) == "" {
		return Doctor{}, apperrors.Validation(apperrors.FieldError{Field: "doctor_id", Reason: "required"})
	}
	if verr := validateFields(doc.Name, doc.Phone, doc.OpeningHours, doc.Profession); verr != nil {
		return Doctor{}, verr
	}

	updated, err := s.client.UpdateDoctor(ctx, doc)
	if err != nil {
		return Doctor{}, err
	}

	s.mu.Lock()
	for i := range s.cache {
		if s.cache[i].ID == updated.ID {
			s.cache[i] = updated
			break
		}
	}
	s.mu.Unlock()

	return updated, nil
}

// Remove issues the delete call and drops the cached record only on
// confirmation. A ConflictError from the server leaves the cache untouched.
func (s *Store) Remove(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return apperrors.Validation(apperrors.FieldError{Field: "doctor_id", Reason: "required"})
	}

	if err := s.client.DeleteDoctor(ctx, id); err != nil {
		return err
	}

	s.mu.Lock()
	for i := range s.cache {
		if s.cache[i].ID == id {
			s.cache = append(s.cache[:i], s.cache[i+1:]...)
			break
		}
	}
	s.mu.Unlock()

	s.log.Info("doctor removed", zap.String("doctor_id", id))
	return nil
}

func validateFields(name, phone, openingHours, profession string) *apperrors.ValidationError {
	var fields []apperrors.FieldError
	if strings.TrimSpace(name) == "" {
		fields = append(fields, apperrors.FieldError{Field: "name", Reason: "required"})
	}
	if strings.TrimSpace(phone) == "" {
		fields = append(fields, apperrors.FieldError{Field: "phone", Reason: "required"})
	}
	if strings.TrimSpace(openingHours) == "" {
		fields = append(fields, apperrors.FieldError{Field: "opening_hours", Reason: "required"})
	}
	if strings.TrimSpace(profession) == "" {
		fields = append(fields, apperrors.FieldError{Field: "profession", Reason: "required"})
	}
	if len(fields) == 0 {
		return nil
	}
	return apperrors.Validation(fields...)
}
