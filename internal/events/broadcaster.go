package events

import (
	"sync"

	"printflow/internal/domain"
)

// Broadcaster раздаёт снимки изменённых заказов подписчикам внутри процесса.
// У каждого подписчика своя неограниченная очередь: Publish не блокируется,
// а обновления одного заказа приходят в порядке публикации и без пропусков
type Broadcaster struct {
	mu     sync.Mutex
	subs   map[uint64]*Subscription
	nextID uint64
	closed bool
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[uint64]*Subscription)}
}

// Subscription поток снимков. Канал закрывается после Close
type Subscription struct {
	id    uint64
	b     *Broadcaster
	out   chan domain.Order
	wake  chan struct{}
	done  chan struct{}
	once  sync.Once
	mu    sync.Mutex
	queue []domain.Order
}

func (b *Broadcaster) Subscribe() *Subscription {
	s := &Subscription{
		b:    b,
		out:  make(chan domain.Order),
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(s.done)
		close(s.out)
		return s
	}
	b.nextID++
	s.id = b.nextID
	b.subs[s.id] = s
	b.mu.Unlock()

	go s.pump()
	return s
}

// Publish ставит копию снимка в очередь каждого подписчика
func (b *Broadcaster) Publish(o domain.Order) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, s := range b.subs {
		s.enqueue(o.Clone())
	}
}

// Subscribers число активных подписок
func (b *Broadcaster) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Close завершает все подписки; новые сразу приходят закрытыми
func (b *Broadcaster) Close() {
	b.mu.Lock()
	b.closed = true
	subs := make([]*Subscription, 0, len(b.subs))
	for _, s := range b.subs {
		subs = append(subs, s)
	}
	b.subs = make(map[uint64]*Subscription)
	b.mu.Unlock()

	for _, s := range subs {
		s.stop()
	}
}

func (s *Subscription) C() <-chan domain.Order { return s.out }

func (s *Subscription) Close() {
	s.b.mu.Lock()
	delete(s.b.subs, s.id)
	s.b.mu.Unlock()
	s.stop()
}

func (s *Subscription) stop() {
	s.once.Do(func() { close(s.done) })
}

func (s *Subscription) enqueue(o domain.Order) {
	s.mu.Lock()
	s.queue = append(s.queue, o)
	s.mu.Unlock()
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Subscription) pump() {
	defer close(s.out)
	for {
		s.mu.Lock()
		batch := s.queue
		s.queue = nil
		s.mu.Unlock()

		if len(batch) == 0 {
			select {
			case <-s.wake:
				continue
			case <-s.done:
				return
			}
		}
		for _, o := range batch {
			select {
			case s.out <- o:
			case <-s.done:
				return
			}
		}
	}
}
