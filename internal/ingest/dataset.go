package ingest

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// Dataset layout below the dataset root
const (
	LabeledIDsFile = "labeled_ids.txt"
	DataDir        = "Data"
	LabelsFile     = "labels.txt"
	TrajectoryDir  = "Trajectory"
	TrajectoryExt  = ".plt"
)

// UserDir is one user folder below Data/
type UserDir struct {
	ID   int64
	Path string
}

// LoadLabeledIDs reads the ids of users that ship a label file, one per
// line. A missing file means no user is labeled.
func LoadLabeledIDs(path string) (map[int64]bool, error) {
	ids := make(map[int64]bool)

	file, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return ids, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open labeled ids: %w", err)
	}
	defer file.Close()

	sc := bufio.NewScanner(file)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		id, err := strconv.ParseInt(line, 10, 64)
		if err != nil {
			continue
		}
		ids[id] = true
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read labeled ids: %w", err)
	}

	return ids, nil
}

// DiscoverUsers lists the user folders of dataDir ordered by id. Folder
// names that are not integers are returned in skipped.
func DiscoverUsers(dataDir string) (users []UserDir, skipped []string, err error) {
	entries, err := os.ReadDir(dataDir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read user folders: %w", err)
	}

	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		id, err := strconv.ParseInt(e.Name(), 10, 64)
		if err != nil {
			skipped = append(skipped, e.Name())
			continue
		}
		users = append(users, UserDir{ID: id, Path: filepath.Join(dataDir, e.Name())})
	}

	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, skipped, nil
}

// TrajectoryFiles lists the .plt logs of a user ordered by name. A user
// without a Trajectory folder has none.
func TrajectoryFiles(userPath string) ([]string, error) {
	dir := filepath.Join(userPath, TrajectoryDir)
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list trajectories: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), TrajectoryExt) {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}
