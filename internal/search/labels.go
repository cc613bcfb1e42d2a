package search

import "strings"

// CocoLabels are the 80 object classes of the COCO detection set, which the
// detection API is trained on.
var CocoLabels = []string{
	"person", "bicycle", "car", "motorcycle", "airplane", "bus", "train", "truck", "boat",
	"traffic light", "fire hydrant", "stop sign", "parking meter", "bench",
	"bird", "cat", "dog", "horse", "sheep", "cow", "elephant", "bear", "zebra", "giraffe",
	"backpack", "umbrella", "handbag", "tie", "suitcase",
	"frisbee", "skis", "snowboard", "sports ball", "kite", "baseball bat", "baseball glove",
	"skateboard", "surfboard", "tennis racket",
	"bottle", "wine glass", "cup", "fork", "knife", "spoon", "bowl",
	"banana", "apple", "sandwich", "orange", "broccoli", "carrot", "hot dog", "pizza", "donut", "cake",
	"chair", "couch", "potted plant", "bed", "dining table", "toilet",
	"tv", "laptop", "mouse", "remote", "keyboard", "cell phone",
	"microwave", "oven", "toaster", "sink", "refrigerator",
	"book", "clock", "vase", "scissors", "teddy bear", "hair drier", "toothbrush",
}

// IsKnownLabel reports whether the trimmed, lower-cased label is a COCO class.
// Unknown labels are still submitted; the server decides.
func IsKnownLabel(label string) bool {
	l := strings.ToLower(strings.TrimSpace(label))
	for _, c := range CocoLabels {
		if c == l {
			return true
		}
	}
	return false
}

// SuggestLabels returns known labels containing the trimmed label as a
// substring, or sharing its first letter when nothing contains it.
func SuggestLabels(label string, max int) []string {
	l := strings.ToLower(strings.TrimSpace(label))
	if l == "" {
		return nil
	}
	var out []string
	for _, c := range CocoLabels {
		if strings.Contains(c, l) || strings.Contains(l, c) {
			out = append(out, c)
		}
	}
	if len(out) == 0 {
		for _, c := range CocoLabels {
			if c[0] == l[0] {
				out = append(out, c)
			}
		}
	}
	if max > 0 && len(out) > max {
		out = out[:max]
	}
	return out
}
