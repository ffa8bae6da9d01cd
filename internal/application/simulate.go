package application

import (
	"fmt"
	"math/rand/v2"

	"github.com/ahrav/go-compass/internal/domain"
)

// Simulation describes a batch of randomly answered quizzes, used for demos
// and for eyeballing how a catalog spreads recommendations.
type Simulation struct {
	// Seed makes runs reproducible.
	Seed uint64
	// Subjects receive two term scores each. Empty means
	// domain.DefaultSubjects.
	Subjects []string
	// MinScore and MaxScore bound the generated marks; both zero means
	// 40..100.
	MinScore, MaxScore int
}

// Simulator draws random submissions from a seeded generator. It is not
// safe for concurrent use.
type Simulator struct {
	catalog  *domain.Catalog
	rng      *rand.Rand
	subjects []string
	min, max int
	n        int
}

// NewSimulator validates sim and returns a simulator over catalog.
func NewSimulator(catalog *domain.Catalog, sim Simulation) (*Simulator, error) {
	lo, hi := sim.MinScore, sim.MaxScore
	if lo == 0 && hi == 0 {
		lo, hi = 40, 100
	}
	if lo < int(domain.MinAcademicScore) || hi > int(domain.MaxAcademicScore) || lo > hi {
		return nil, fmt.Errorf("%w: score range %d..%d", domain.ErrInvalidConfiguration, lo, hi)
	}
	subjects := sim.Subjects
	if len(subjects) == 0 {
		subjects = domain.DefaultSubjects()
	}
	return &Simulator{
		catalog:  catalog,
		rng:      rand.New(rand.NewPCG(sim.Seed, sim.Seed^0x9e3779b97f4a7c15)),
		subjects: subjects,
		min:      lo,
		max:      hi,
	}, nil
}

// Next draws one complete submission: a uniformly random option for every
// question and two term scores per subject.
func (s *Simulator) Next() (Submission, error) {
	s.n++

	answers := make(map[int]string, len(s.catalog.Questions))
	for _, q := range s.catalog.Questions {
		answers[q.ID] = q.Options[s.rng.IntN(len(q.Options))].ID
	}

	record := domain.NewAcademicRecord(domain.DuplicateMerge)
	for _, subject := range s.subjects {
		var err error
		record, err = record.Add(subject, s.mark(), s.mark())
		if err != nil {
			return Submission{}, err
		}
	}

	return Submission{
		SessionID: fmt.Sprintf("simulation-%d", s.n),
		Student:   domain.Student{Name: fmt.Sprintf("Simulated Student %d", s.n), Audience: domain.AudienceStudent},
		Answers:   answers,
		Academics: record,
	}, nil
}

func (s *Simulator) mark() float64 {
	return float64(s.min + s.rng.IntN(s.max-s.min+1))
}
