package devserver

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/amora-planner/internal/domain"
	"github.com/phrazzld/amora-planner/internal/domain/finance"
	"github.com/phrazzld/amora-planner/internal/store"
	"github.com/phrazzld/amora-planner/internal/wire"
	"golang.org/x/crypto/bcrypt"
)

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, wire.Health{Status: "healthy", Service: s.name})
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var body wire.UserCreate
	if err := decodeJSON(r, &body); err != nil {
		respondErrorAndLog(w, r, http.StatusUnprocessableEntity, "Invalid request format", err)
		return
	}
	reg := wire.RegistrationFromWire(body)
	if err := reg.Validate(); err != nil {
		respondErrorAndLog(w, r, http.StatusUnprocessableEntity, validationDetail(err), err)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), s.bcryptCost)
	if err != nil {
		respondErrorAndLog(w, r, http.StatusInternalServerError, "Failed to create user", err)
		return
	}

	user, err := s.db.createUser(domain.User{
		Email:     strings.TrimSpace(reg.Email),
		Name:      reg.Name,
		CreatedAt: s.timestamp(),
	}, hash)
	if errors.Is(err, errEmailTaken) {
		respondError(w, r, http.StatusBadRequest, "Email already registered")
		return
	}
	if err != nil {
		respondErrorAndLog(w, r, http.StatusInternalServerError, "Failed to create user", err)
		return
	}
	respondJSON(w, r, http.StatusOK, wire.UserFromDomain(user))
}

// login implements the OAuth2 password grant: form fields username and password.
func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		respondErrorAndLog(w, r, http.StatusUnprocessableEntity, "Invalid request format", err)
		return
	}
	creds := domain.Credentials{
		Email:    r.PostForm.Get("username"),
		Password: r.PostForm.Get("password"),
	}
	if err := creds.Validate(); err != nil {
		respondErrorAndLog(w, r, http.StatusUnprocessableEntity, validationDetail(err), err)
		return
	}

	user, hash, err := s.db.userByEmail(creds.Email)
	if err == nil {
		err = bcrypt.CompareHashAndPassword(hash, []byte(creds.Password))
	}
	if err != nil {
		w.Header().Set("WWW-Authenticate", "Bearer")
		respondErrorAndLog(w, r, http.StatusUnauthorized, "Incorrect email or password", err)
		return
	}

	token, err := s.tokens.issue(user.ID)
	if err != nil {
		respondErrorAndLog(w, r, http.StatusInternalServerError, "Failed to issue token", err)
		return
	}
	respondJSON(w, r, http.StatusOK, wire.Token{AccessToken: token, TokenType: "bearer"})
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	user, err := s.db.userByID(userID(r))
	if err != nil {
		respondErrorAndLog(w, r, http.StatusNotFound, "User not found", err)
		return
	}
	respondJSON(w, r, http.StatusOK, wire.UserFromDomain(user))
}

func (s *Server) updateMe(w http.ResponseWriter, r *http.Request) {
	var body wire.UserUpdate
	if err := decodeJSON(r, &body); err != nil {
		respondErrorAndLog(w, r, http.StatusUnprocessableEntity, "Invalid request format", err)
		return
	}
	update := domain.UserUpdate{Name: body.Name}
	if err := update.Validate(); err != nil {
		respondErrorAndLog(w, r, http.StatusUnprocessableEntity, validationDetail(err), err)
		return
	}

	now := s.timestamp()
	user, err := s.db.updateUser(userID(r), func(u *domain.User) {
		u.Name = update.Name
		u.UpdatedAt = &now
	})
	if err != nil {
		respondErrorAndLog(w, r, http.StatusNotFound, "User not found", err)
		return
	}
	respondJSON(w, r, http.StatusOK, wire.UserFromDomain(user))
}

func (s *Server) createSimulation(w http.ResponseWriter, r *http.Request) {
	in, ok := s.decodeSimulationInput(w, r)
	if !ok {
		return
	}
	sim := s.db.insertSimulation(domain.Simulation{
		UserID:         userID(r),
		PropertyValue:  in.PropertyValue,
		DownPaymentPct: in.DownPaymentPct,
		TermYears:      in.TermYears,
		Address:        in.Address,
		PropertyType:   in.PropertyType,
		Notes:          in.Notes,
		Derived:        finance.DeriveInput(in),
		CreatedAt:      s.timestamp(),
	})
	respondJSON(w, r, http.StatusOK, wire.SimulationFromDomain(sim))
}

func (s *Server) listSimulations(w http.ResponseWriter, r *http.Request) {
	page, err := pageParams(r)
	if err != nil {
		respondErrorAndLog(w, r, http.StatusUnprocessableEntity, "skip and limit must be integers", err)
		return
	}
	sims, total := s.db.listSimulations(userID(r), page.Skip, page.Limit)
	respondJSON(w, r, http.StatusOK, wire.SimulationList{
		Simulations: wire.SimulationsFromDomain(sims),
		Total:       total,
	})
}

func (s *Server) getSimulation(w http.ResponseWriter, r *http.Request) {
	id, ok := simulationID(w, r)
	if !ok {
		return
	}
	sim, err := s.db.simulation(userID(r), id)
	if err != nil {
		respondError(w, r, http.StatusNotFound, "Simulation not found")
		return
	}
	respondJSON(w, r, http.StatusOK, wire.SimulationFromDomain(sim))
}

// updateSimulation merges the supplied fields and recomputes the derived
// figures only when an input changed.
func (s *Server) updateSimulation(w http.ResponseWriter, r *http.Request) {
	id, ok := simulationID(w, r)
	if !ok {
		return
	}
	var body wire.SimulationUpdate
	if err := decodeJSON(r, &body); err != nil {
		respondErrorAndLog(w, r, http.StatusUnprocessableEntity, "Invalid request format", err)
		return
	}
	patch := wire.PatchFromUpdate(body)
	if patch.IsEmpty() {
		// An empty body is a no-op, as in the production API.
		s.getSimulation(w, r)
		return
	}
	if err := patch.Validate(); err != nil {
		respondErrorAndLog(w, r, http.StatusUnprocessableEntity, validationDetail(err), err)
		return
	}

	now := s.timestamp()
	sim, err := s.db.updateSimulation(userID(r), id, func(sim *domain.Simulation) {
		merged := patch.Merge(*sim)
		sim.Address, sim.PropertyType, sim.Notes = merged.Address, merged.PropertyType, merged.Notes
		if patch.ChangesInputs() {
			sim.PropertyValue = merged.PropertyValue
			sim.DownPaymentPct = merged.DownPaymentPct
			sim.TermYears = merged.TermYears
			sim.Derived = finance.DeriveInput(merged)
		}
		sim.Name = domain.SimulationName(sim.ID, sim.Address)
		sim.UpdatedAt = &now
	})
	if err != nil {
		respondError(w, r, http.StatusNotFound, "Simulation not found")
		return
	}
	respondJSON(w, r, http.StatusOK, wire.SimulationFromDomain(sim))
}

func (s *Server) deleteSimulation(w http.ResponseWriter, r *http.Request) {
	id, ok := simulationID(w, r)
	if !ok {
		return
	}
	if err := s.db.deleteSimulation(userID(r), id); err != nil {
		respondError(w, r, http.StatusNotFound, "Simulation not found")
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]string{"message": "Simulation deleted successfully"})
}

func (s *Server) statistics(w http.ResponseWriter, r *http.Request) {
	stats := finance.Statistics(s.db.userSimulations(userID(r)))
	respondJSON(w, r, http.StatusOK, wire.StatisticsFromDomain(stats))
}

func (s *Server) calculate(w http.ResponseWriter, r *http.Request) {
	in, ok := s.decodeSimulationInput(w, r)
	if !ok {
		return
	}
	respondJSON(w, r, http.StatusOK, wire.CalculationFromDomain(finance.Calculate(in)))
}

func (s *Server) decodeSimulationInput(w http.ResponseWriter, r *http.Request) (domain.SimulationInput, bool) {
	var body wire.SimulationCreate
	if err := decodeJSON(r, &body); err != nil {
		respondErrorAndLog(w, r, http.StatusUnprocessableEntity, "Invalid request format", err)
		return domain.SimulationInput{}, false
	}
	in := wire.InputFromCreate(body)
	if err := in.Validate(); err != nil {
		respondErrorAndLog(w, r, http.StatusUnprocessableEntity, validationDetail(err), err)
		return domain.SimulationInput{}, false
	}
	return in, true
}

func simulationID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondErrorAndLog(w, r, http.StatusUnprocessableEntity, "simulation id must be an integer", err)
		return 0, false
	}
	return id, true
}

func pageParams(r *http.Request) (store.Page, error) {
	var page store.Page
	q := r.URL.Query()
	if v := q.Get("skip"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return page, err
		}
		page.Skip = n
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return page, err
		}
		page.Limit = n
	}
	return page.Normalize(), nil
}

// validationDetail strips the generic prefix so the client sees the specific
// reason.
func validationDetail(err error) string {
	msg := err.Error()
	return strings.TrimPrefix(msg, domain.ErrValidation.Error()+": ")
}
