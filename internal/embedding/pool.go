package embedding

// meanPool averages the token rows of hidden whose mask entry is set.
func meanPool(hidden []float32, mask []int64, dimensions int) []float32 {
	out := make([]float32, dimensions)
	var count float32
	for t, m := range mask {
		if m == 0 {
			continue
		}
		row := hidden[t*dimensions : (t+1)*dimensions]
		for i, v := range row {
			out[i] += v
		}
		count++
	}
	if count > 0 {
		for i := range out {
			out[i] /= count
		}
	}
	return out
}
