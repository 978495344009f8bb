package progress_test

import (
	"sync"
	"testing"

	"github.com/MdMeraj01/youtube-downloader/internal/progress"
	"github.com/stretchr/testify/assert"
)

func ptr[T any](v T) *T { return &v }

func Test_Get_UnknownJobYieldsNotStarted(t *testing.T) {
	t.Parallel()
	registry := progress.NewRegistry()

	snapshot := registry.Get("missing")
	assert.Equal(t, progress.StateNotStarted, snapshot.State)
	assert.Zero(t, snapshot.Percent)
	assert.Equal(t, "0 B/s", snapshot.Speed)
}

func Test_Create_OverwritesExistingEntry(t *testing.T) {
	t.Parallel()
	registry := progress.NewRegistry()

	registry.Create("job")
	registry.Update("job", progress.Fields{Percent: ptr(55.0), State: ptr(progress.StateDownloading)})
	registry.Create("job")

	snapshot := registry.Get("job")
	assert.Equal(t, progress.StateStarting, snapshot.State)
	assert.Zero(t, snapshot.Percent)
}

func Test_Update_MergesOnlyProvidedFields(t *testing.T) {
	t.Parallel()
	registry := progress.NewRegistry()
	registry.Create("job")

	registry.Update("job", progress.Fields{
		Percent:  ptr(12.5),
		State:    ptr(progress.StateDownloading),
		Speed:    ptr("1.2 MB/s"),
		SizeInfo: ptr("1.5 MB / 12.0 MB"),
	})
	registry.Update("job", progress.Fields{Percent: ptr(40.0)})

	snapshot := registry.Get("job")
	assert.Equal(t, 40.0, snapshot.Percent)
	assert.Equal(t, progress.StateDownloading, snapshot.State)
	assert.Equal(t, "1.2 MB/s", snapshot.Speed)
	assert.Equal(t, "1.5 MB / 12.0 MB", snapshot.SizeInfo)
}

func Test_Update_CreatesEntryDefensively(t *testing.T) {
	t.Parallel()
	registry := progress.NewRegistry()

	registry.Update("late", progress.Fields{Percent: ptr(99.0)})
	assert.Equal(t, 99.0, registry.Get("late").Percent)
}

func Test_Remove_IsIdempotent(t *testing.T) {
	t.Parallel()
	registry := progress.NewRegistry()

	registry.Create("job")
	registry.Remove("job")
	registry.Remove("job")

	assert.Equal(t, progress.StateNotStarted, registry.Get("job").State)
}

// Concurrent readers must always observe either the fully-prior or the
// fully-post snapshot of an update, never a partial merge.
func Test_ConcurrentReadsObserveConsistentSnapshots(t *testing.T) {
	t.Parallel()
	registry := progress.NewRegistry()
	registry.Create("job")

	var wg sync.WaitGroup
	stop := make(chan struct{})

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i <= 100; i++ {
			pct := float64(i)
			size := "chunk"
			if i%2 == 0 {
				size = "block"
			}
			registry.Update("job", progress.Fields{
				Percent:  &pct,
				State:    ptr(progress.StateDownloading),
				SizeInfo: &size,
			})
		}
		close(stop)
	}()

	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}

				snapshot := registry.Get("job")
				if snapshot.State == progress.StateDownloading {
					even := int(snapshot.Percent)%2 == 0
					if even {
						assert.Equal(t, "block", snapshot.SizeInfo)
					} else {
						assert.Equal(t, "chunk", snapshot.SizeInfo)
					}
				}
			}
		}()
	}

	wg.Wait()
}
