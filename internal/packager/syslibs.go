package packager

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/harrison/pydist/internal/filelock"
	"github.com/harrison/pydist/internal/models"
)

// AugmentSystemFiles copies the named OS shared libraries from systemDir into
// target unless target already has them. Names that cannot be found or copied
// are recorded in report.SystemMissing; the others are still processed.
func AugmentSystemFiles(target, systemDir string, names []string, log Logger, report *models.Report) {
	for _, name := range names {
		dst := filepath.Join(target, name)
		if isFile(dst) {
			log.LogDebug(fmt.Sprintf("%s already present", name))
			report.SystemPresent = append(report.SystemPresent, name)
			continue
		}

		src := filepath.Join(systemDir, name)
		if systemDir == "" || !isFile(src) {
			log.LogError(fmt.Sprintf("Unable to locate %s", name))
			report.SystemMissing = append(report.SystemMissing, name)
			continue
		}

		log.LogInfo(fmt.Sprintf("Copying %s from %s", name, src))
		if err := filelock.AtomicCopy(src, dst); err != nil {
			log.LogError(fmt.Sprintf("Unable to copy %s: %v", name, err))
			report.SystemMissing = append(report.SystemMissing, name)
			continue
		}
		report.SystemCopied = append(report.SystemCopied, name)
	}
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
