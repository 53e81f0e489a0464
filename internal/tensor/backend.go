package tensor

// Backend defines the kernels a compute backend provides.
//
// Implementations:
//   - backend/cpu: pure Go kernels with goroutine fan-out
//   - autodiff: a decorator recording every call on a gradient tape
//
// Every method allocates its result and leaves its inputs untouched. Invalid
// shapes panic with an error wrapping ErrShapeMismatch, ErrInvalidAxis or
// ErrIndexOutOfRange.
type Backend interface {
	// Element-wise binary operations with NumPy broadcasting.
	Add(a, b *RawTensor) *RawTensor
	Sub(a, b *RawTensor) *RawTensor
	Mul(a, b *RawTensor) *RawTensor
	Div(a, b *RawTensor) *RawTensor

	// MatMul multiplies 2-D matrices: [m, k] @ [k, n] -> [m, n].
	MatMul(a, b *RawTensor) *RawTensor

	// BatchMatMul multiplies the trailing matrices of tensors with identical
	// leading dimensions: [..., m, k] @ [..., k, n] -> [..., m, n].
	BatchMatMul(a, b *RawTensor) *RawTensor

	// Shape operations.
	Reshape(t *RawTensor, newShape Shape) *RawTensor
	Transpose(t *RawTensor, axes ...int) *RawTensor

	// Scalar operations.
	MulScalar(x *RawTensor, scalar any) *RawTensor
	AddScalar(x *RawTensor, scalar any) *RawTensor

	// Element-wise math.
	Exp(x *RawTensor) *RawTensor
	Log(x *RawTensor) *RawTensor
	Sqrt(x *RawTensor) *RawTensor
	ReLU(x *RawTensor) *RawTensor

	// Normalizations along one dimension.
	Softmax(x *RawTensor, dim int) *RawTensor
	LogSoftmax(x *RawTensor, dim int) *RawTensor

	// Reductions.
	SumDim(x *RawTensor, dim int, keepDim bool) *RawTensor
	MeanDim(x *RawTensor, dim int, keepDim bool) *RawTensor

	// Indexing.
	Where(condition, x, y *RawTensor) *RawTensor               // condition != 0 ? x : y, broadcast
	Gather(x *RawTensor, dim int, index *RawTensor) *RawTensor // select along dim with int32 indices
	Embedding(weight, indices *RawTensor) *RawTensor           // rows of weight by int32 indices

	// Metadata.
	Name() string
	Device() Device
}
