package boosting

import (
	"math"
	"sort"
)

const leafNode = -1

// Node is one split or leaf of a regression tree. A row goes left when its feature value is
// NaN or at most Threshold.
type Node struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	Left      int     `json:"left"`
	Right     int     `json:"right"`
	Value     float64 `json:"value"`
}

func (n Node) isLeaf() bool {
	return n.Left == leafNode
}

// Tree is a flat slice of nodes rooted at index 0
type Tree struct {
	Nodes []Node `json:"nodes"`
}

func (t *Tree) predict(row []float64) float64 {
	i := 0
	for {
		n := t.Nodes[i]
		if n.isLeaf() {
			return n.Value
		}
		v := row[n.Feature]
		if math.IsNaN(v) || v <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

// binner quantizes each feature into at most maxBins buckets. Bucket b holds values at most
// borders[b] and above borders[b-1]; NaN goes to bucket 0.
type binner struct {
	borders [][]float64
}

func newBinner(cols [][]float64, maxBins int) *binner {
	borders := make([][]float64, len(cols))
	for j, col := range cols {
		vals := make([]float64, 0, len(col))
		for _, v := range col {
			if !math.IsNaN(v) {
				vals = append(vals, v)
			}
		}
		sort.Float64s(vals)
		borders[j] = quantileBorders(vals, maxBins)
	}
	return &binner{borders: borders}
}

// quantileBorders returns up to maxBins-1 unique split borders of the sorted values. The
// largest value is never a border since nothing could fall to its right.
func quantileBorders(sorted []float64, maxBins int) []float64 {
	if len(sorted) == 0 {
		return nil
	}
	unique := make([]float64, 0, len(sorted))
	for i, v := range sorted {
		if i == 0 || v != sorted[i-1] {
			unique = append(unique, v)
		}
	}
	if len(unique)-1 <= maxBins-1 {
		return unique[:len(unique)-1]
	}

	borders := make([]float64, 0, maxBins-1)
	for k := 1; k < maxBins; k++ {
		v := sorted[k*len(sorted)/maxBins]
		if v == sorted[len(sorted)-1] {
			break
		}
		if len(borders) > 0 && v == borders[len(borders)-1] {
			continue
		}
		borders = append(borders, v)
	}
	return borders
}

func (b *binner) numBins(feature int) int {
	return len(b.borders[feature]) + 1
}

func (b *binner) bin(feature int, v float64) uint16 {
	if math.IsNaN(v) {
		return 0
	}
	return uint16(sort.SearchFloat64s(b.borders[feature], v))
}

func (b *binner) transform(cols [][]float64) [][]uint16 {
	bins := make([][]uint16, len(cols))
	for j, col := range cols {
		bins[j] = make([]uint16, len(col))
		for i, v := range col {
			bins[j][i] = b.bin(j, v)
		}
	}
	return bins
}

// treeBuilder grows one depth limited tree on binned features against the residuals
type treeBuilder struct {
	opt      *Options
	binner   *binner
	bins     [][]uint16
	residual []float64
	nodes    []Node
	// leaf value assigned to each row, used to update the running prediction
	rowValue []float64
}

type histBin struct {
	sum   float64
	count int
}

func (tb *treeBuilder) build(rows []int) Tree {
	tb.nodes = tb.nodes[:0]
	tb.grow(rows, 0)
	nodes := make([]Node, len(tb.nodes))
	copy(nodes, tb.nodes)
	return Tree{Nodes: nodes}
}

func (tb *treeBuilder) leafValue(sum float64, count int) float64 {
	return sum / (float64(count) + tb.opt.L2Reg)
}

func (tb *treeBuilder) grow(rows []int, depth int) int {
	var sum float64
	for _, r := range rows {
		sum += tb.residual[r]
	}
	count := len(rows)

	idx := len(tb.nodes)
	tb.nodes = append(tb.nodes, Node{Left: leafNode, Right: leafNode})

	makeLeaf := func() int {
		val := tb.leafValue(sum, count)
		tb.nodes[idx].Value = val
		for _, r := range rows {
			tb.rowValue[r] = val
		}
		return idx
	}

	if depth >= tb.opt.MaxDepth || count < 2*tb.opt.MinSamplesLeaf {
		return makeLeaf()
	}

	feature, split, ok := tb.bestSplit(rows, sum, count)
	if !ok {
		return makeLeaf()
	}

	left := make([]int, 0, count)
	right := make([]int, 0, count)
	for _, r := range rows {
		if int(tb.bins[feature][r]) <= split {
			left = append(left, r)
		} else {
			right = append(right, r)
		}
	}

	tb.nodes[idx].Feature = feature
	tb.nodes[idx].Threshold = tb.binner.borders[feature][split]
	l := tb.grow(left, depth+1)
	r := tb.grow(right, depth+1)
	tb.nodes[idx].Left = l
	tb.nodes[idx].Right = r
	return idx
}

// bestSplit scans every feature histogram for the split with the largest gain. A split at
// bin s sends bins 0 through s left.
func (tb *treeBuilder) bestSplit(rows []int, sum float64, count int) (int, int, bool) {
	lambda := tb.opt.L2Reg
	parentScore := sum * sum / (float64(count) + lambda)

	bestGain := 1e-12
	bestFeature, bestSplit := -1, -1
	for j := range tb.bins {
		nb := tb.binner.numBins(j)
		if nb < 2 {
			continue
		}
		hist := make([]histBin, nb)
		col := tb.bins[j]
		for _, r := range rows {
			hist[col[r]].sum += tb.residual[r]
			hist[col[r]].count++
		}

		var leftSum float64
		var leftCount int
		for s := 0; s < nb-1; s++ {
			leftSum += hist[s].sum
			leftCount += hist[s].count
			rightCount := count - leftCount
			if leftCount < tb.opt.MinSamplesLeaf {
				continue
			}
			if rightCount < tb.opt.MinSamplesLeaf {
				break
			}
			rightSum := sum - leftSum
			gain := leftSum*leftSum/(float64(leftCount)+lambda) +
				rightSum*rightSum/(float64(rightCount)+lambda) -
				parentScore
			if gain > bestGain {
				bestGain = gain
				bestFeature, bestSplit = j, s
			}
		}
	}
	return bestFeature, bestSplit, bestFeature >= 0
}
