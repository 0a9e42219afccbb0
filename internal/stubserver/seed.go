package stubserver

import (
	"fmt"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
)

var professions = []string{
	"General Practice",
	"Dermatology",
	"Cardiology",
	"Orthopedics",
	"Neurology",
	"Pediatrics",
	"Ophthalmology",
	"ENT",
}

// SeedDoctors fills the stub directory with plausible records so the
// portal has something to list on a fresh start.
func (s *Server) SeedDoctors(count int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := 0; i < count; i++ {
		s.doctors = append(s.doctors, stubDoctor{
			DoctorID:     uuid.NewString(),
			Name:         "Dr. " + gofakeit.Name(),
			Phone:        gofakeit.Phone(),
			OpeningHours: fmt.Sprintf("Mon-Fri %d:00-%d:00", gofakeit.Number(7, 9), gofakeit.Number(16, 19)),
			Profession:   professions[gofakeit.Number(0, len(professions)-1)],
		})
	}
}
