package application

// InputState は1tick分のプレイヤー入力です。X, Y は -1, 0, 1 の移動方向です。
type InputState struct {
	X, Y  int
	Shoot bool
	Pause bool
}

// InputSource はビューごとの入力元です。
type InputSource interface {
	Poll(s GameSnapshot) InputState
}

// InputFunc は関数を InputSource として扱うためのアダプタです。
type InputFunc func(s GameSnapshot) InputState

func (f InputFunc) Poll(s GameSnapshot) InputState { return f(s) }

// StaticInput は常に同じ入力を返します。
type StaticInput InputState

func (in StaticInput) Poll(GameSnapshot) InputState { return InputState(in) }
