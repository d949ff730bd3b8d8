package fakeapi

import (
	"sort"
	"strconv"
	"sync"

	"github.com/jrsteele09/edu-console/academy"
)

// dataStore holds the academy records. Ids are sequential integers shared
// across record kinds, as string ids.
type dataStore struct {
	mu         sync.RWMutex
	nextID     int
	groups     map[academy.ID]academy.Group
	students   map[academy.ID]academy.Student
	attendance map[academy.ID]academy.Attendance
	scores     map[academy.ID]academy.Score
}

func newDataStore() *dataStore {
	return &dataStore{
		groups:     make(map[academy.ID]academy.Group),
		students:   make(map[academy.ID]academy.Student),
		attendance: make(map[academy.ID]academy.Attendance),
		scores:     make(map[academy.ID]academy.Score),
	}
}

func (d *dataStore) newID() academy.ID {
	d.nextID++
	return academy.ID(strconv.Itoa(d.nextID))
}

func byID[T any](m map[academy.ID]T, keep func(T) bool) []T {
	ids := make([]academy.ID, 0, len(m))
	for id, v := range m {
		if keep == nil || keep(v) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].Int() < ids[j].Int() })
	out := make([]T, 0, len(ids))
	for _, id := range ids {
		out = append(out, m[id])
	}
	return out
}

// Groups

func (d *dataStore) listGroups(keep func(academy.Group) bool) []academy.Group {
	d.mu.RLock()
	defer d.mu.RUnlock()
	groups := byID(d.groups, keep)
	for i := range groups {
		groups[i].Students = d.studentsInGroupLocked(groups[i].ID)
	}
	return groups
}

func (d *dataStore) group(id academy.ID) (academy.Group, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	g, ok := d.groups[id]
	if ok {
		g.Students = d.studentsInGroupLocked(id)
	}
	return g, ok
}

func (d *dataStore) putGroup(g academy.Group) academy.Group {
	d.mu.Lock()
	defer d.mu.Unlock()
	if g.ID == "" {
		g.ID = d.newID()
	}
	g.Students = nil
	d.groups[g.ID] = g
	return g
}

func (d *dataStore) deleteGroup(id academy.ID) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.groups[id]; !ok {
		return false
	}
	delete(d.groups, id)
	for sid, st := range d.students {
		if st.InGroup(id) {
			st.GroupID = nil
			d.students[sid] = st
		}
	}
	return true
}

// mentorGroups returns the ids of the groups led by mentorID.
func (d *dataStore) mentorGroups(mentorID academy.ID) map[academy.ID]bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	ids := make(map[academy.ID]bool)
	for id, g := range d.groups {
		if g.MentorID == mentorID {
			ids[id] = true
		}
	}
	return ids
}

// Students

func (d *dataStore) studentsInGroupLocked(groupID academy.ID) []academy.Student {
	return byID(d.students, func(s academy.Student) bool { return s.InGroup(groupID) })
}

func (d *dataStore) listStudents(keep func(academy.Student) bool) []academy.Student {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return byID(d.students, keep)
}

func (d *dataStore) student(id academy.ID) (academy.Student, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	s, ok := d.students[id]
	return s, ok
}

func (d *dataStore) putStudent(s academy.Student) academy.Student {
	d.mu.Lock()
	defer d.mu.Unlock()
	if s.ID == "" {
		s.ID = d.newID()
	}
	s.Username, s.Password = "", ""
	s.Attendance, s.Scores, s.Rank = nil, nil, 0
	d.students[s.ID] = s
	return s
}

func (d *dataStore) deleteStudent(id academy.ID) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.students[id]; !ok {
		return false
	}
	delete(d.students, id)
	for aid, a := range d.attendance {
		if a.StudentID == id {
			delete(d.attendance, aid)
		}
	}
	for scid, sc := range d.scores {
		if sc.StudentID == id {
			delete(d.scores, scid)
		}
	}
	return true
}

// topStudents orders by coins, highest first, ties by id.
func (d *dataStore) topStudents(limit int) []academy.Student {
	students := d.listStudents(nil)
	sort.SliceStable(students, func(i, j int) bool {
		return students[i].Coins > students[j].Coins
	})
	if limit > 0 && len(students) > limit {
		students = students[:limit]
	}
	return students
}

// Attendance

func (d *dataStore) listAttendance(keep func(academy.Attendance) bool) []academy.Attendance {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return byID(d.attendance, keep)
}

func (d *dataStore) attendanceRecord(id academy.ID) (academy.Attendance, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	a, ok := d.attendance[id]
	return a, ok
}

func (d *dataStore) putAttendance(a academy.Attendance) academy.Attendance {
	d.mu.Lock()
	defer d.mu.Unlock()
	if a.ID == "" {
		a.ID = d.newID()
	}
	d.attendance[a.ID] = a
	return a
}

// Scores

func (d *dataStore) listScores(keep func(academy.Score) bool) []academy.Score {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return byID(d.scores, keep)
}

// addScore stores sc and credits coins to its student in one step.
func (d *dataStore) addScore(sc academy.Score, coins int) (academy.Score, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	st, ok := d.students[sc.StudentID]
	if !ok {
		return academy.Score{}, false
	}
	sc.ID = d.newID()
	d.scores[sc.ID] = sc
	if coins != 0 {
		st.Coins += coins
		d.students[st.ID] = st
	}
	return sc, true
}
