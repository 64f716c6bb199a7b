package pipeline

type State int

const (
	StateStart State = iota
	StateValidating
	StateFetching
	StateStaging
	StateFolderCheck
	StateUploading
	StateRecordingMetadata
	StateDone
	StateFailed
	StateCleaningUp
)

var stateNames = map[State]string{
	StateStart:             "start",
	StateValidating:        "validating",
	StateFetching:          "fetching",
	StateStaging:           "staging",
	StateFolderCheck:       "folder_check",
	StateUploading:         "uploading",
	StateRecordingMetadata: "recording_metadata",
	StateDone:              "done",
	StateFailed:            "failed",
	StateCleaningUp:        "cleaning_up",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}
