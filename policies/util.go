package policies

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sort"

	erand "golang.org/x/exp/rand"
)

type QTable struct {
	table map[string]map[string]float64

	rand *erand.Rand
}

// NewQTable creates an empty table. The seed only breaks ties in MaxAmong.
func NewQTable(seed uint64) *QTable {
	return &QTable{
		table: make(map[string]map[string]float64),
		rand:  erand.New(erand.NewSource(seed)),
	}
}

func (q *QTable) GetAll(state string) (map[string]float64, bool) {
	values, ok := q.table[state]
	return values, ok
}

func (q *QTable) Get(state, action string, def float64) float64 {
	if _, ok := q.table[state]; !ok {
		q.table[state] = make(map[string]float64)
	}
	if _, ok := q.table[state][action]; !ok {
		q.table[state][action] = def
	}
	return q.table[state][action]
}

func (q *QTable) Set(state, action string, val float64) {
	if _, ok := q.table[state]; !ok {
		q.table[state] = make(map[string]float64)
	}
	q.table[state][action] = val
}

func (q *QTable) HasState(state string) bool {
	_, ok := q.table[state]
	return ok
}

func (q *QTable) Max(state string, def float64) (string, float64) {
	if _, ok := q.table[state]; !ok { // if state is not in the QTable at all, return default value
		q.table[state] = make(map[string]float64)
		return "", def
	}
	maxAction := ""
	maxVal := math.Inf(-1)
	for a, val := range q.table[state] { // for all the actions
		if val > maxVal {
			maxAction = a
			maxVal = val
		}
	}

	if maxAction == "" {
		return "", def
	}

	return maxAction, maxVal
}

func (q *QTable) Exists(state string) bool {
	_, ok := q.table[state]
	return ok
}

func (q *QTable) Size() int {
	return len(q.table)
}

func (q *QTable) MaxAmong(state string, actions []string, def float64) (string, float64) {
	if _, ok := q.table[state]; !ok {
		q.table[state] = make(map[string]float64)
	}
	maxActions := make([]string, 0)
	maxVal := math.Inf(-1)
	for _, a := range actions {
		if _, ok := q.table[state][a]; !ok {
			q.table[state][a] = def
		}
		val := q.table[state][a]
		if val > maxVal {
			maxActions = make([]string, 0)
			maxVal = val
		}
		if val == maxVal {
			maxActions = append(maxActions, a)
		}
	}

	if len(maxActions) == 0 {
		return "", def
	}
	randAction := q.rand.Intn(len(maxActions))
	return maxActions[randAction], maxVal
}

// Read loads a table written by Record, one JSON object per line
func (q *QTable) Read(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("error reading file: %s", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		in := qTableLine{}
		if err := json.Unmarshal(scanner.Bytes(), &in); err != nil {
			return fmt.Errorf("error reading file contents: %s", err)
		}
		q.table[in.State] = in.Entries
	}
	return scanner.Err()
}

type qTableLine struct {
	State   string             `json:"state"`
	Entries map[string]float64 `json:"entries"`
}

// Record writes the table to path as JSON lines, states in sorted order
func (q *QTable) Record(path string) error {
	bs := new(bytes.Buffer)

	states := make([]string, 0, len(q.table))
	for state := range q.table {
		states = append(states, state)
	}
	sort.Strings(states)
	for _, state := range states {
		stateBS, err := json.Marshal(qTableLine{State: state, Entries: q.table[state]})
		if err != nil {
			return err
		}
		bs.Write(stateBS)
		bs.Write([]byte("\n"))
	}
	return os.WriteFile(path, bs.Bytes(), 0644)
}
