package domain

// Technician is a user with role TEC plus capacity bookkeeping.
// ID is the technician's user id.
type Technician struct {
	ID              string
	Name            string
	Email           string
	Role            Role
	Active          bool
	Available       bool
	WorkloadLimit   int
	CurrentWorkload int
	Specialties     []string
}

// Headroom is the free fraction of capacity. It goes negative when over-committed.
func (t *Technician) Headroom() float64 {
	if t.WorkloadLimit <= 0 {
		return 0
	}
	return float64(t.WorkloadLimit-t.CurrentWorkload) / float64(t.WorkloadLimit)
}

// AtCapacity reports whether the technician cannot take a manual assignment.
func (t *Technician) AtCapacity() bool {
	return t.CurrentWorkload >= t.WorkloadLimit
}

// HasAnySpecialty reports whether the technician shares a specialty with required.
func (t *Technician) HasAnySpecialty(required []string) bool {
	for _, want := range required {
		for _, have := range t.Specialties {
			if want == have {
				return true
			}
		}
	}
	return false
}
