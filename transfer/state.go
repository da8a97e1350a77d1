package transfer

// TransferTask is the snapshot of one in-flight transfer the node
// participates in, keyed by the transfer's secret hash. Role records which
// part the node plays; Secret is the cleartext secret when the node holds
// it and EmptySecret otherwise.
type TransferTask struct {
	Role   Role
	Secret Secret
}

// ChainState is an immutable snapshot of the node's view of chain and
// network state at a given block. Role and route resolution are pure
// functions over a snapshot, so handling a message is deterministic for a
// fixed snapshot regardless of concurrent chain progress.
type ChainState struct {
	blockNumber BlockNumber
	ourAddress  Address
	tasks       map[SecretHash]TransferTask
}

// NewChainState builds a snapshot. The task map is copied; the snapshot
// never observes later mutations of the caller's map.
func NewChainState(block BlockNumber, ourAddress Address, tasks map[SecretHash]TransferTask) *ChainState {
	copied := make(map[SecretHash]TransferTask, len(tasks))
	for h, t := range tasks {
		copied[h] = t
	}
	return &ChainState{
		blockNumber: block,
		ourAddress:  ourAddress,
		tasks:       copied,
	}
}

// BlockNumber returns the block height the snapshot was taken at.
func (s *ChainState) BlockNumber() BlockNumber {
	return s.blockNumber
}

// OurAddress returns the local node's address.
func (s *ChainState) OurAddress() Address {
	return s.ourAddress
}

func (s *ChainState) task(h SecretHash) (TransferTask, bool) {
	t, ok := s.tasks[h]
	return t, ok
}
