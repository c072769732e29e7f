package state

import "iter"

// WalkDFS yields the blocks of a snapshot reachable from rootID in
// pre-order. Missing and already visited ids are skipped.
func WalkDFS(blocks Blocks, rootID string) iter.Seq[*Block] {
	return func(yield func(*Block) bool) {
		visited := make(map[string]bool)
		stack := []string{rootID}
		for len(stack) > 0 {
			id := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			block, ok := blocks[id]
			if !ok || block == nil || visited[id] {
				continue
			}
			visited[id] = true
			if !yield(block) {
				return
			}

			children := block.Data.Children()
			for i := len(children) - 1; i >= 0; i-- {
				stack = append(stack, children[i])
			}
		}
	}
}

// WalkBFS yields the blocks of a snapshot reachable from rootID level by
// level.
func WalkBFS(blocks Blocks, rootID string) iter.Seq[*Block] {
	return func(yield func(*Block) bool) {
		visited := make(map[string]bool)
		queue := []string{rootID}
		for len(queue) > 0 {
			id := queue[0]
			queue = queue[1:]

			block, ok := blocks[id]
			if !ok || block == nil || visited[id] {
				continue
			}
			visited[id] = true
			if !yield(block) {
				return
			}

			queue = append(queue, block.Data.Children()...)
		}
	}
}
