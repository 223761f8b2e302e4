package world

import (
	"slices"
	"sync"

	"voxelstream/internal/voxel"
)

// chunkLoadJob tracks one bulk load or unload. Load jobs count down once per
// generated chunk; unload jobs finish as a single unit. followUp, if set, is
// submitted once the job finishes. Only one follow-up per job is supported.
type chunkLoadJob struct {
	id        uint64
	box       voxel.ChunkBox
	remaining int
	followUp  *MeshChunkFace
}

// jobList holds pending load and unload jobs. It is touched by the
// simulation goroutine and by callers of LoadChunks and UnloadChunks.
type jobList struct {
	mu     sync.Mutex
	nextID uint64
	load   []*chunkLoadJob
	unload []*chunkLoadJob
}

// addLoad assigns j a fresh id and returns it.
func (l *jobList) addLoad(j *chunkLoadJob) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.nextID++
	j.id = l.nextID
	l.load = append(l.load, j)
	return j.id
}

func (l *jobList) addUnload(j *chunkLoadJob) {
	l.mu.Lock()
	l.unload = append(l.unload, j)
	l.mu.Unlock()
}

// chunkGenerated counts one generated chunk against the load job with the
// given id and returns that job if it just finished.
func (l *jobList) chunkGenerated(id uint64) (*chunkLoadJob, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	i := slices.IndexFunc(l.load, func(j *chunkLoadJob) bool { return j.id == id })
	if i < 0 {
		return nil, false
	}
	j := l.load[i]
	j.remaining--
	if j.remaining > 0 {
		return nil, false
	}
	l.load = slices.Delete(l.load, i, i+1)
	return j, true
}

// unloaded removes the oldest unload job for box.
func (l *jobList) unloaded(box voxel.ChunkBox) (*chunkLoadJob, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	i := slices.IndexFunc(l.unload, func(j *chunkLoadJob) bool { return j.box == box })
	if i < 0 {
		return nil, false
	}
	j := l.unload[i]
	l.unload = slices.Delete(l.unload, i, i+1)
	return j, true
}

func (l *jobList) pending() (load, unload int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.load), len(l.unload)
}
