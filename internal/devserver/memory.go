package devserver

import (
	"errors"
	"slices"
	"strings"
	"sync"

	"github.com/phrazzld/amora-planner/internal/domain"
)

var (
	errEmailTaken         = errors.New("email already registered")
	errUserNotFound       = errors.New("user not found")
	errSimulationNotFound = errors.New("simulation not found")
)

type account struct {
	user         domain.User
	passwordHash []byte
}

// memoryDB keeps accounts and simulations for the lifetime of the process.
type memoryDB struct {
	mu          sync.RWMutex
	nextUserID  int64
	nextSimID   int64
	accounts    map[int64]*account
	byEmail     map[string]int64
	simulations []domain.Simulation
}

func newMemoryDB() *memoryDB {
	return &memoryDB{
		accounts: make(map[int64]*account),
		byEmail:  make(map[string]int64),
	}
}

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (db *memoryDB) createUser(u domain.User, hash []byte) (domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	key := emailKey(u.Email)
	if _, ok := db.byEmail[key]; ok {
		return domain.User{}, errEmailTaken
	}
	db.nextUserID++
	u.ID = db.nextUserID
	db.accounts[u.ID] = &account{user: u, passwordHash: hash}
	db.byEmail[key] = u.ID
	return u, nil
}

func (db *memoryDB) userByEmail(email string) (domain.User, []byte, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	id, ok := db.byEmail[emailKey(email)]
	if !ok {
		return domain.User{}, nil, errUserNotFound
	}
	acc := db.accounts[id]
	return acc.user, acc.passwordHash, nil
}

func (db *memoryDB) userByID(id int64) (domain.User, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	acc, ok := db.accounts[id]
	if !ok {
		return domain.User{}, errUserNotFound
	}
	return acc.user, nil
}

func (db *memoryDB) updateUser(id int64, fn func(*domain.User)) (domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	acc, ok := db.accounts[id]
	if !ok {
		return domain.User{}, errUserNotFound
	}
	fn(&acc.user)
	return acc.user, nil
}

func (db *memoryDB) insertSimulation(s domain.Simulation) domain.Simulation {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.nextSimID++
	s.ID = db.nextSimID
	s.Name = domain.SimulationName(s.ID, s.Address)
	db.simulations = append(db.simulations, s)
	return s
}

// listSimulations returns the user's simulations newest first, windowed by
// skip and limit, plus the unwindowed count.
func (db *memoryDB) listSimulations(userID int64, skip, limit int) ([]domain.Simulation, int) {
	all := db.userSimulations(userID)
	slices.Reverse(all)
	total := len(all)
	start := min(skip, total)
	end := min(start+limit, total)
	return all[start:end], total
}

func (db *memoryDB) userSimulations(userID int64) []domain.Simulation {
	db.mu.RLock()
	defer db.mu.RUnlock()

	var out []domain.Simulation
	for _, s := range db.simulations {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	return out
}

func (db *memoryDB) simulation(userID, id int64) (domain.Simulation, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	for _, s := range db.simulations {
		if s.ID == id && s.UserID == userID {
			return s, nil
		}
	}
	return domain.Simulation{}, errSimulationNotFound
}

func (db *memoryDB) updateSimulation(userID, id int64, fn func(*domain.Simulation)) (domain.Simulation, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for i := range db.simulations {
		if db.simulations[i].ID == id && db.simulations[i].UserID == userID {
			fn(&db.simulations[i])
			return db.simulations[i], nil
		}
	}
	return domain.Simulation{}, errSimulationNotFound
}

func (db *memoryDB) deleteSimulation(userID, id int64) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	for i, s := range db.simulations {
		if s.ID == id && s.UserID == userID {
			db.simulations = slices.Delete(db.simulations, i, i+1)
			return nil
		}
	}
	return errSimulationNotFound
}
