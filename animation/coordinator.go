package animation

// Coordinator makes controllers over one shared resource follow a single leader
// The leader writes frames; followers mirror its state
type Coordinator struct {
	leaders map[any]*Controller
}

func NewCoordinator() *Coordinator {
	return &Coordinator{leaders: make(map[any]*Controller)}
}

// Register attaches c to the group for key, leading it when the group is empty
func (co *Coordinator) Register(key any, c *Controller) {
	if key == nil || c.key != nil {
		return
	}
	c.key = key
	leader, ok := co.leaders[key]
	if !ok {
		co.leaders[key] = c
		return
	}
	c.leader = leader
	c.function, c.index, c.frame = leader.function, leader.index, leader.frame
	leader.followers = append(leader.followers, c)
}

// Unregister detaches c; when the leader leaves, the oldest follower takes over
func (co *Coordinator) Unregister(c *Controller) {
	if c.key == nil {
		return
	}
	key := c.key
	c.key = nil

	if c.leader != nil {
		leader := c.leader
		c.leader = nil
		for i, f := range leader.followers {
			if f == c {
				leader.followers = append(leader.followers[:i], leader.followers[i+1:]...)
				break
			}
		}
		return
	}

	if len(c.followers) == 0 {
		delete(co.leaders, key)
		return
	}
	next := c.followers[0]
	next.leader = nil
	next.followers = c.followers[1:]
	next.playing, next.paused, next.elapsed = c.playing, c.paused, c.elapsed
	for _, f := range next.followers {
		f.leader = next
	}
	c.followers = nil
	co.leaders[key] = next
}

// Leader returns the controller driving key
func (co *Coordinator) Leader(key any) *Controller {
	return co.leaders[key]
}
