package notify

import (
	"context"
	"fmt"
	"sync"

	"github.com/godbus/dbus/v5"
)

const (
	notificationsDest   = "org.freedesktop.Notifications"
	notificationsPath   = dbus.ObjectPath("/org/freedesktop/Notifications")
	notificationsNotify = notificationsDest + ".Notify"
)

// Desktop shows notifications through the freedesktop notification daemon on
// the session bus.
type Desktop struct {
	appName string
	icon    string
	timeout int32

	mu   sync.Mutex
	conn *dbus.Conn
}

func NewDesktop(appName, icon string) *Desktop {
	return &Desktop{
		appName: appName,
		icon:    icon,
		timeout: -1,
	}
}

func (d *Desktop) Notify(ctx context.Context, summary, body string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.conn == nil || !d.conn.Connected() {
		conn, err := dbus.ConnectSessionBus()
		if err != nil {
			return &NotificationError{Sink: "desktop", Err: fmt.Errorf("connect session bus: %w", err)}
		}
		d.conn = conn
	}

	obj := d.conn.Object(notificationsDest, notificationsPath)
	call := obj.CallWithContext(ctx, notificationsNotify, 0,
		d.appName,
		uint32(0),
		d.icon,
		summary,
		body,
		[]string{},
		map[string]dbus.Variant{},
		d.timeout,
	)
	if call.Err != nil {
		return &NotificationError{Sink: "desktop", Err: call.Err}
	}

	var id uint32
	if err := call.Store(&id); err != nil {
		return &NotificationError{Sink: "desktop", Err: err}
	}
	return nil
}

func (d *Desktop) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.conn == nil {
		return nil
	}
	err := d.conn.Close()
	d.conn = nil
	return err
}
