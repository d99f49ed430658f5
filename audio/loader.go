package audio

import (
	"io/fs"
	"path/filepath"
	"strings"
)

const soundExtension = ".wav"

// loadLoop is the background loader: it drains the pending path list
// newest-first, decodes each asset outside the lock and publishes it
// into the asset table under the lock. Exits when the list is empty or
// the engine shuts down.
func (e *Engine) loadLoop() {
	defer close(e.loaderDone)

	// Paths in the queue come from walking SoundDir, so after cleaning
	// they share its cleaned form as a prefix.
	root := filepath.ToSlash(filepath.Clean(e.cfg.SoundDir))
	for {
		select {
		case <-e.loaderQuit:
			return
		default:
		}

		e.mu.Lock()
		n := len(e.loadQueue)
		if n == 0 {
			e.mu.Unlock()
			return
		}
		path := e.loadQueue[n-1]
		e.mu.Unlock()

		name, looping := soundName(path, root)
		if name != "" {
			if buf, err := e.backend.LoadBuffer(path); err == nil {
				e.mu.Lock()
				s := e.sounds[name]
				if s == nil {
					s = &Sound{name: name}
					e.sounds[name] = s
				}
				s.setLoaded(buf, looping)
				e.mu.Unlock()
			}
			// Decode failures skip the asset, same as unrecognized paths.
		}

		e.mu.Lock()
		e.loadQueue = e.loadQueue[:len(e.loadQueue)-1]
		e.mu.Unlock()
	}
}

// soundName derives an asset name from a path: the part below the root
// directory, without the extension, minus an optional trailing '~' loop
// marker. root must be a cleaned slash path; "." means the path itself
// is root-relative. Returns "" for paths outside the root or not
// recognized sound files.
func soundName(path, root string) (name string, looping bool) {
	p := filepath.ToSlash(filepath.Clean(path))
	if !strings.HasSuffix(p, soundExtension) {
		return "", false
	}

	rel := p
	if root != "." {
		prefix := root + "/"
		if !strings.HasPrefix(p, prefix) {
			return "", false
		}
		rel = p[len(prefix):]
	}

	name = rel[:len(rel)-len(soundExtension)]
	if strings.HasSuffix(name, "~") {
		name = name[:len(name)-1]
		looping = true
	}
	if name == "" {
		return "", false
	}
	return name, looping
}

// listSoundPaths enumerates every file under root. Filtering happens in
// soundName; a missing root simply yields no assets.
func listSoundPaths(root string) []string {
	var paths []string
	filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			paths = append(paths, path)
		}
		return nil
	})
	return paths
}
