package chain

// tokenABI covers the NepaliPay token functions and events the sync
// subsystem uses. The deployed contract has a larger surface; only these
// entries are bound.
const tokenABI = `[
  {"type":"function","name":"registerUser","stateMutability":"nonpayable","inputs":[{"name":"userId","type":"uint256"},{"name":"walletAddress","type":"address"}],"outputs":[]},
  {"type":"function","name":"isRegistered","stateMutability":"view","inputs":[{"name":"user","type":"address"}],"outputs":[{"name":"","type":"bool"}]},
  {"type":"function","name":"balanceOf","stateMutability":"view","inputs":[{"name":"account","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"transfer","stateMutability":"nonpayable","inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
  {"type":"function","name":"mint","stateMutability":"nonpayable","inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[]},
  {"type":"function","name":"burn","stateMutability":"nonpayable","inputs":[{"name":"from","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[]},
  {"type":"function","name":"executeTransaction","stateMutability":"nonpayable","inputs":[{"name":"from","type":"address"},{"name":"to","type":"address"},{"name":"amount","type":"uint256"},{"name":"data","type":"bytes"}],"outputs":[{"name":"","type":"bool"}]},
  {"type":"event","name":"Transfer","anonymous":false,"inputs":[{"name":"from","type":"address","indexed":true},{"name":"to","type":"address","indexed":true},{"name":"value","type":"uint256","indexed":false}]},
  {"type":"event","name":"UserRegistered","anonymous":false,"inputs":[{"name":"userId","type":"uint256","indexed":true},{"name":"walletAddress","type":"address","indexed":true}]}
]`
