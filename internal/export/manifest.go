package export

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"matseed/internal/value"
)

// Container names.
const (
	ContainerMaterials          = "materials"
	ContainerFinishes           = "finishes"
	ContainerFinishSets         = "finishSets"
	ContainerMaterialFinishes   = "materialFinishes"
	ContainerMaterialFinishSets = "materialFinishSets"
	ContainerLifecycleProfiles  = "lifecycleProfiles"
)

// Fixed output files.
const (
	ManifestFile = "manifest.json"
	ReportFile   = "REPORT.md"
)

// PartitionKeyPath is shared by every container.
const PartitionKeyPath = "/pk"

// Container describes one target collection.
type Container struct {
	Name string
	File string
}

// Containers lists every collection in manifest order.
var Containers = []Container{
	{ContainerMaterials, "materials.json"},
	{ContainerFinishes, "finishes.json"},
	{ContainerFinishSets, "finish-sets.json"},
	{ContainerMaterialFinishes, "material-finishes.json"},
	{ContainerMaterialFinishSets, "material-finish-sets.json"},
	{ContainerLifecycleProfiles, "lifecycle-profiles.json"},
}

// Counts maps container names to record counts.
type Counts map[string]int

// batchNamespace scopes batch ids derived from input digests.
var batchNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("matseed:batch"))

// BatchID derives a stable UUIDv5 from the input digest.
func BatchID(digest string) string {
	return uuid.NewSHA1(batchNamespace, []byte(digest)).String()
}

// Digest hashes input lines ("path@sha256", "option=value", ...) into one
// SHA-256 hex digest. Line order does not matter.
func Digest(lines []string) string {
	sorted := append([]string(nil), lines...)
	sort.Strings(sorted)
	sum := sha256.Sum256([]byte(strings.Join(sorted, "\n")))
	return hex.EncodeToString(sum[:])
}

// FileLine returns "path@sha256" for a file's content.
func FileLine(path string, content []byte) string {
	sum := sha256.Sum256(content)
	return path + "@" + hex.EncodeToString(sum[:])
}

func buildManifest(counts Counts, digest string, generatedAt time.Time) *value.Object {
	m := value.NewObject()
	m.Set("generatedAt", value.String(generatedAt.Format(time.RFC3339)))

	inputs := value.NewObject()
	inputs.Set("sha256", value.String(digest))
	m.Set("inputs", inputs)
	m.Set("batchId", value.String(BatchID(digest)))

	c := value.NewObject()
	var containers value.Array
	for _, ct := range Containers {
		c.Set(ct.Name, value.Number(counts[ct.Name]))

		entry := value.NewObject()
		entry.Set("name", value.String(ct.Name))
		entry.Set("partitionKeyPath", value.String(PartitionKeyPath))
		entry.Set("file", value.String(ct.File))
		entry.Set("count", value.Number(counts[ct.Name]))
		containers = append(containers, entry)
	}
	m.Set("counts", c)
	m.Set("containers", containers)
	return m
}
